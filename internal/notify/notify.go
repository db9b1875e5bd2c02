// Package notify reports pipeline failures to operators.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"casetrack/internal/etl"
)

// Source identifies this system in machine-readable payloads.
const Source = "casetrack"

// Subject is the subject line of failure notifications.
const Subject = "Exception in casetrack ETL job"

// Payload is the machine-readable description of a failure.
type Payload struct {
	Source        string   `json:"Source"`
	ExceptionType string   `json:"ExceptionType"`
	Message       string   `json:"Message"`
	Arguments     []string `json:"Arguments"`
}

// Notifier delivers failure payloads.
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// Describe classifies err into a payload. Pipeline errors are reported by
// their type name with their structured arguments; any other error is
// reported by its concrete type.
func Describe(err error) Payload {
	p := Payload{Source: Source, Message: err.Error()}

	var (
		invalid *etl.InvalidDatasetError
		missing *etl.MissingDatasetError
		cfgErr  *etl.ConfigurationError
	)
	switch {
	case errors.As(err, &invalid):
		p.ExceptionType = "InvalidDatasetError"
		p.Arguments = []string{invalid.Reason}
	case errors.As(err, &missing):
		p.ExceptionType = "MissingDatasetError"
		p.Arguments = missing.RoleNames()
	case errors.As(err, &cfgErr):
		p.ExceptionType = "ConfigurationError"
		p.Arguments = []string{cfgErr.Reason}
	default:
		p.ExceptionType = typeName(err)
		p.Arguments = []string{err.Error()}
	}
	return p
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}

// Render returns the per-protocol message bodies: a one-line default, a
// human-readable email and the JSON payload for lambda and sqs consumers.
func (p Payload) Render() (map[string]string, error) {
	machine, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	email := strings.Join([]string{
		"An exception was caught in the casetrack ETL job",
		"Exception Type: " + p.ExceptionType,
		"Message: " + p.Message,
		"Arguments: " + strings.Join(p.Arguments, ","),
	}, "\n")

	return map[string]string{
		"default": "Exception: " + p.Message,
		"email":   email,
		"lambda":  string(machine),
		"sqs":     string(machine),
	}, nil
}

// LogNotifier writes payloads to the log. It is used when no topic is configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n *LogNotifier) Notify(_ context.Context, p Payload) error {
	log := n.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Error("pipeline failure",
		zap.String("exceptionType", p.ExceptionType),
		zap.String("message", p.Message),
		zap.Strings("arguments", p.Arguments),
	)
	return nil
}
