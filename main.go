// Package main is the entry point for the rostersim CLI, which simulates
// matches between team rosters and reports player performance.
package main

import "github.com/pable/rostersim/cmd"

func main() {
	cmd.Execute()
}
