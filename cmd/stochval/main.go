// Package main is the entry point for the stochval CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/stochval/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
