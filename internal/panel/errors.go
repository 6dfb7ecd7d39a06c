// Package panel wires configuration, telemetry, rendering and display into
// the fixed-rate loop that drives the aircraft panel.
package panel

import "fmt"

// ConfigurationError reports a problem that prevents the panel from
// starting: invalid settings, a degenerate calibration, an unreadable asset
// or a display that cannot be opened.
type ConfigurationError struct {
	// Component names the part of the setup that failed (e.g., "calibration")
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(component string, err error) error {
	return &ConfigurationError{Component: component, Err: err}
}
