package main

import (
	"os"

	"carddex/cmd/carddex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
