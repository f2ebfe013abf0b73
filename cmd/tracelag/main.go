// tracelag - Trace Log Latency Analyzer
//
// tracelag reconstructs call durations from multi-thread entry/exit trace
// logs and reports the operations that met or exceeded a threshold.
package main

import (
	"os"

	"github.com/tracelag/tracelag/internal/cli"
	"github.com/tracelag/tracelag/internal/logger"
)

func main() {
	code := cli.Execute()
	logger.Sync()
	os.Exit(code)
}
