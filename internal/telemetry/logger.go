// Package telemetry constructs the process-wide logger and metrics
// registry: structured zap logging plus counters for the quantities
// operators care about most.
package telemetry

import (
	"go.uber.org/zap"
)

// NewLogger builds a production zap.Logger; pass debug=true for a more
// verbose development config during local runs.
func NewLogger(debug bool) *zap.Logger {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic("telemetry: build development logger: " + err.Error())
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic("telemetry: build production logger: " + err.Error())
	}
	return logger
}
