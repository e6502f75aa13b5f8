// Command bankctl is the command-line client of the bank mirror REST API.
package main

import (
	"os"

	"github.com/aristath/bankmirror/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
