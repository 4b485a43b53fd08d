// ./main.go
package main

import (
	"github.com/usmank11/automatic-fisher/cmd"
)

// main is the entry point for the fisher CLI.
func main() {
	// Execute the root command defined in the cmd package. This handles
	// all command-line parsing, configuration, and execution.
	cmd.Execute()
}
