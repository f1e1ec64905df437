package main

import (
	"os"

	"github.com/armgate-dev/armgate/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
