// Package main is the entry point for routeloader.
package main

func main() {
	Execute()
}
