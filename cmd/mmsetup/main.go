package main

import (
	"os"

	"github.com/mmstack/mmsetup/internal/output"
)

func main() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output.DefaultLogger.Error("%v", err)
		os.Exit(1)
	}
}
