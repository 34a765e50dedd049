// Package main is the entry point for the Veil validation engine.
// It validates researcher SQL queries under differential privacy.
package main

import (
	"veil/engine/cmd"
)

// main initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
