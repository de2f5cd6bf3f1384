package main

import (
	"os"

	"github.com/tormodhaugland/nodepick/cmd/nodepick/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
