package main

import (
	"os"

	"github.com/pixgram-dev/pixgram/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
