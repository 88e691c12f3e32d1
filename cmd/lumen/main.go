package main

import (
	"os"

	"github.com/spaghettifunk/lumen/cmd/lumen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
