package main

import (
	"os"

	"github.com/entrepeneur4lyf/mak/cmd/mak/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
