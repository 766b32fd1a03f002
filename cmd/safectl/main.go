// Command safectl runs maintenance tasks against the Safe database.
package main

import (
	"os"

	"github.com/BudHamud/safe/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
