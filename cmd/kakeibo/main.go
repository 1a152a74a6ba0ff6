// Package main is the entry point for the kakeibo CLI.
package main

import (
	"os"

	"kakeibo/cmd/kakeibo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
