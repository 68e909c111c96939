package main

import (
	"fmt"
)

// ConfigurationError reports missing or malformed configuration. It is
// always raised before any report data is read.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %q: %s", e.Key, e.Reason)
}

// ResolutionError is returned when a bucket listing contains no manifest
// belonging to a recognizable billing cycle.
type ResolutionError struct {
	Reason string
}

func (e *ResolutionError) Error() string {
	return "couldn't resolve billing report manifest: " + e.Reason
}

// ClassificationError is returned for an RDS storage line item whose
// description names no known storage type.
type ClassificationError struct {
	UsageType   string
	Description string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("can't determine RDS storage type of %q from line item description %q", e.UsageType, e.Description)
}

// RecordError wraps a failure to interpret one CSV line.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("billing report line %d: %v", e.Line, e.Err)
}

// Cause lets github.com/pkg/errors.Cause walk through a RecordError.
func (e *RecordError) Cause() error { return e.Err }

func (e *RecordError) Unwrap() error { return e.Err }
