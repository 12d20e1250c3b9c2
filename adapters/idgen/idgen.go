// Package idgen provides ID generators for tagging route loads.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/routeloader/ports"
	"github.com/google/uuid"
)

// UUID generates time-ordered UUIDs (v7), falling back to v4.
type UUID struct{}

// New generates a new UUID.
func (UUID) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Sequential generates prefixed sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
