package main

import (
	"os"

	"github.com/evoscript-lang/evoscript/cmd"
)

func main() {
	if err := cmd.App().Execute(); err != nil {
		os.Exit(1)
	}
}
