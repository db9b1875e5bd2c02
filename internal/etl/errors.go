package etl

import (
	"fmt"
	"strings"
)

// InvalidDatasetError is returned when a row set's shape or contents are unusable.
type InvalidDatasetError struct {
	Reason string
}

func (e *InvalidDatasetError) Error() string {
	return "invalid format for dataset: " + e.Reason
}

func invalidDataset(format string, args ...any) error {
	return &InvalidDatasetError{Reason: fmt.Sprintf(format, args...)}
}

// MissingDatasetError is returned when one or both roles were not found among the inputs.
type MissingDatasetError struct {
	Roles []Role
}

func (e *MissingDatasetError) Error() string {
	return "datasets were not received for " + strings.Join(e.RoleNames(), ", ")
}

// RoleNames returns the missing roles as strings.
func (e *MissingDatasetError) RoleNames() []string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return names
}

// ConfigurationError is returned when the pipeline is invoked without the
// inputs or collaborators it needs.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}
