package main

import (
	"os"

	"github.com/dev-mohitbeniwal/taskhub/api/cmd/policyctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
