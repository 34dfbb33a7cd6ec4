package main

import (
	"os"

	"github.com/hmeicr/hmeicr/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
