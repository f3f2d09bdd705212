//go:build windows

package main

import "os"

// shutdownSignals stop the dashboard and the MCP server. Windows has no SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt}
