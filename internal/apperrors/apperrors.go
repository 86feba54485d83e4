// Package apperrors defines the error kinds shared by the provisioner packages.
// Callers test for a kind with Is rather than comparing messages.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error
type Kind int

const (
	// Unknown is the zero Kind
	Unknown Kind = iota
	// Configuration is missing or invalid process configuration
	Configuration
	// Validation is bad caller input
	Validation
	// NotFound is a reference to a tenant or user that does not exist
	NotFound
	// Conflict is a duplicate email within a tenant
	Conflict
	// Provisioning is a failed control plane call
	Provisioning
	// Parse is a failed resource id heuristic
	Parse
	// Query is a failed read or write against the registry or a tenant database
	Query
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	Configuration: "configuration",
	Validation:    "validation",
	NotFound:      "not found",
	Conflict:      "conflict",
	Provisioning:  "provisioning",
	Parse:         "parse",
	Query:         "query",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[Unknown]
}

// Error carries a Kind, the operation that failed and the underlying cause
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind and operation name
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds an Error whose cause is a formatted message
func Newf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first Error in err's chain
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unknown
}

// Is reports whether err's chain contains an Error of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ConfigurationError wraps err as a Configuration error
func ConfigurationError(op string, err error) error { return New(Configuration, op, err) }

// ProvisioningError wraps a failed control plane call
func ProvisioningError(op string, err error) error { return New(Provisioning, op, err) }

// ParseError wraps a failed resource id lookup
func ParseError(op string, err error) error { return New(Parse, op, err) }

// QueryError wraps a failed database read or write
func QueryError(op string, err error) error { return New(Query, op, err) }

// ValidationError reports bad caller input, msg is safe to show the caller
func ValidationError(op string, msg string) error { return Newf(Validation, op, "%s", msg) }

// Cause returns the message of the cause of the first Error in err's chain
func Cause(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return ""
}
