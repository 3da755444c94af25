package provider

import "errors"

var (
	// ErrNoProvider is returned by the aggregator when no registered
	// provider supports the requested service type, or every candidate
	// failed.
	ErrNoProvider = errors.New("no provider available for service type")

	// ErrUnsupportedType is returned by a client asked to serve a service
	// type it does not implement.
	ErrUnsupportedType = errors.New("service type not supported by provider")

	// ErrEmptyPayload is returned when a task payload carries no usable
	// input.
	ErrEmptyPayload = errors.New("task payload is empty")

	// ErrUpstream wraps non-2xx responses from a provider API.
	ErrUpstream = errors.New("provider request failed")
)
