package main

import (
	"os"

	"github.com/moolen/hac-console/cmd/hac-console/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
