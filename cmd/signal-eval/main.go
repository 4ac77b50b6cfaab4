package main

import (
	"os"

	"github.com/ajharbinger/intent-signal-hub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
