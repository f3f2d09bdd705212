//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop the dashboard and the MCP server.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
