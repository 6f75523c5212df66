package main

import (
	"os"

	"github.com/conneroisu/virsqr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
