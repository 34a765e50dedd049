// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// SecretRetrieval indicates database or API credentials could not be resolved.
	SecretRetrieval Kind = "secret_retrieval_failed"
	// SchemaIntrospection indicates table metadata could not be derived.
	SchemaIntrospection Kind = "schema_introspection_failed"
	// BudgetAllocation indicates the privacy budget could not be split across columns.
	BudgetAllocation Kind = "budget_allocation_failed"
	// PrivateExecution indicates the privacy mechanism rejected or failed the query.
	PrivateExecution Kind = "private_execution_failed"
	// Delivery indicates the result payload could not be posted to the API.
	Delivery Kind = "delivery_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of err when an *E is anywhere in its chain, or "" otherwise.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
