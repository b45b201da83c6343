package main

import (
	"os"

	"github.com/tokamak-network/hr-candidate-screening/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
