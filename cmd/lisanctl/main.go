package main

import (
	"os"

	"github.com/satriahrh/lisan/cmd/lisanctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
