package main

import (
	"os"

	"github.com/dominikschlosser/aadhaar-verify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
