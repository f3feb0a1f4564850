package errors

import (
	"fmt"

	"stylusguard/internal/ir"
)

// ParseError means the input could not be structurally understood at a
// location. The builder recovers per region where it can; a ParseError is
// only fatal when zero structure was recoverable.
type ParseError struct {
	Pos    ir.Position
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %s", e.Pos, e.Reason)
}

// ConfigurationError rejects invalid analysis configuration before any
// work starts. No partial analysis is meaningful with invalid config, so
// this always fails the whole call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DetectorTimeout records a detector that did not finish inside the time
// budget. It is never fatal; completed detectors' findings are kept.
type DetectorTimeout struct {
	Detector string
}

func (e *DetectorTimeout) Error() string {
	return fmt.Sprintf("detector %s timed out", e.Detector)
}
