package main

import (
	"os"

	"github.com/discord-day-summarizer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
