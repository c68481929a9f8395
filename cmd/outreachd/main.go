package main

import (
	"os"

	"github.com/homelistingai/outreach/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
