package main

import (
	"os"

	"wrapbeep.click/internal/cli"
)

func main() {
	c := cli.NewCLI()
	os.Exit(c.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
