package main

import (
	"os"

	"github.com/zeu5/lab-rl/benchmarks"
)

// main entry point to the lab commands
func main() {
	rootCommand := benchmarks.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
