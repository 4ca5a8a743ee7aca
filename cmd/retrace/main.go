package main

import (
	"os"

	"github.com/retracehq/retrace/cmd/retrace/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
