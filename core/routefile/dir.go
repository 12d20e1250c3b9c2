package routefile

import "os"

// IsValidDestinationPath reports whether path is a non-empty path to an
// existing directory.
func IsValidDestinationPath(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
