package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested servie does not exist
	ErrItemNotFound = errors.New("servie not found")

	// ErrServerOffline indicates the catalog server is unreachable
	ErrServerOffline = errors.New("catalog server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrMutationRejected indicates the server answered a mutation with a non-OK status
	ErrMutationRejected = errors.New("mutation rejected by server")

	// ErrNotLoaded indicates the requested state has not been fetched yet
	ErrNotLoaded = errors.New("state not loaded")
)
