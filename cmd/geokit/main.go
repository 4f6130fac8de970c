package main

import (
	"github.com/bstardust/geokit/internal/logger"
	"github.com/bstardust/geokit/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
