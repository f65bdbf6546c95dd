package main

import (
	"fmt"
	"os"

	"github.com/pthm/lazymodal/cmd/lazymodal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
