// Command tsugix wraps a child command, and on failure asks an LLM to
// propose and apply a fix.
package main

import (
	"os"

	"github.com/tsugix/tsugix/internal/cmd"
	"github.com/tsugix/tsugix/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cleanup := telemetry.Init(version)
	defer cleanup()
	defer telemetry.RecoverAndPanic()

	code, err := cmd.Execute(version)
	if err != nil {
		telemetry.CaptureError(err)
	}
	return code
}
