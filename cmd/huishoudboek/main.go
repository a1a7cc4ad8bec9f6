package main

import (
	"os"

	"github.com/huishoudboek-dev/huishoudboek/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
