package main

import (
	"os"

	"github.com/infarma/ordergate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
