package main

import (
	"os"

	"github.com/persenaut/challenges/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
