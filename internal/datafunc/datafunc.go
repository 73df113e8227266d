// Package datafunc implements the crop-analytics data function: validate
// host inputs, resolve a warehouse client, run the fixed retrieval query,
// and fold every failure into the closed error taxonomy hosts rely on.
package datafunc

import (
	"errors"
	"strings"

	"github.com/agrigate/agrigate/internal/warehouse"
)

type Inputs struct {
	Crop      string
	Region    string
	StartDate string
	EndDate   string
}

// Kind enumerates the failure classes an invocation can report. The set is
// closed: every error, including panics, maps to exactly one kind.
type Kind string

const (
	KindMissingInput   Kind = "missing_input"
	KindConfiguration  Kind = "configuration"
	KindAuthentication Kind = "authentication"
	KindRemoteQuery    Kind = "remote_query"
	KindUnexpected     Kind = "unexpected"
)

// Label returns the human-readable error label placed in the Error column
// of the host-facing error table.
func (k Kind) Label() string {
	switch k {
	case KindMissingInput:
		return "Missing input parameters"
	case KindConfiguration:
		return "Authentication configuration error"
	case KindAuthentication:
		return "Authentication error"
	case KindRemoteQuery:
		return "BigQuery API error"
	default:
		return "Unexpected error"
	}
}

type MissingInputError struct {
	Fields []string
}

func (e *MissingInputError) Error() string {
	return "the following required inputs are missing or empty: " + strings.Join(e.Fields, ", ")
}

type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return e.Detail
}

type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

type RemoteQueryError struct {
	Err error
}

func (e *RemoteQueryError) Error() string {
	return e.Err.Error()
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// Classify maps an error to its taxonomy kind and the detail string shown
// to hosts. Unrecognized errors land on KindUnexpected.
func Classify(err error) (Kind, string) {
	var missing *MissingInputError
	if errors.As(err, &missing) {
		return KindMissingInput, missing.Error()
	}
	var configuration *ConfigurationError
	if errors.As(err, &configuration) {
		return KindConfiguration, configuration.Error()
	}
	var authentication *AuthenticationError
	if errors.As(err, &authentication) {
		return KindAuthentication, authentication.Error()
	}
	var remote *RemoteQueryError
	if errors.As(err, &remote) {
		return KindRemoteQuery, remote.Error()
	}
	return KindUnexpected, err.Error()
}

// ValidateInputs trims all four inputs and reports every blank field in a
// single MissingInputError, in declaration order.
func ValidateInputs(in Inputs) (warehouse.Filter, error) {
	filter := warehouse.Filter{
		Crop:      strings.TrimSpace(in.Crop),
		Region:    strings.TrimSpace(in.Region),
		StartDate: strings.TrimSpace(in.StartDate),
		EndDate:   strings.TrimSpace(in.EndDate),
	}

	var missing []string
	if filter.Crop == "" {
		missing = append(missing, "crop")
	}
	if filter.Region == "" {
		missing = append(missing, "region")
	}
	if filter.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if filter.EndDate == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return warehouse.Filter{}, &MissingInputError{Fields: missing}
	}
	return filter, nil
}
