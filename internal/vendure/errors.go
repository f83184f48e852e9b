package vendure

import (
	"fmt"
	"strings"
)

// AuthError means the login handshake failed. It is always fatal to a run.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError is a non-2xx HTTP response from the backend.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vendure API returned HTTP %d: %s", e.Status, e.Body)
}

// GraphQLError carries the structured errors array from a GraphQL response.
type GraphQLError struct {
	Errors []GraphQLErrorItem
}

type GraphQLErrorItem struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e *GraphQLError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		messages = append(messages, item.Message)
	}
	return "graphql errors: " + strings.Join(messages, "; ")
}

// DownloadError means an external image could not be fetched.
type DownloadError struct {
	URL    string
	Status int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
}

// UnexpectedResponseError means the asset upload response matched none of
// the documented shapes.
type UnexpectedResponseError struct {
	Body string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected asset upload response: %s", e.Body)
}

// ProductCreationError wraps a failed createProduct call, most commonly a
// slug collision reported by the backend.
type ProductCreationError struct {
	Name string
	Slug string
	Err  error
}

func (e *ProductCreationError) Error() string {
	return fmt.Sprintf("create product %q (slug %q): %v", e.Name, e.Slug, e.Err)
}

func (e *ProductCreationError) Unwrap() error { return e.Err }
