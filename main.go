package main

import (
	"os"

	"github.com/recrsn/nanocoder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
