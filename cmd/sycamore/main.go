package main

import (
	"os"

	"github.com/wonny/sycamore/backend/cmd/sycamore/commands"
)

// main is the entry point for the Sycamore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/sycamore [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
