// Package main is the entry point for the hearth support chat backend.
package main

func main() {
	Execute()
}
