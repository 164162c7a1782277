// The main package for the tender-harvester executable.
package main

import (
	"github.com/mzielin/tender-harvester/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
