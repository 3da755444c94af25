// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors produced while parsing the "Authorization" header in the
// auth middleware. Callers match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader means the request carries no
	// "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader means the header is present but cannot
	// be split into a scheme and a token value.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken means the header carries the expected scheme prefix but
	// the token value itself is empty.
	ErrEmptyToken = errors.New("empty token in `Authorization` header")
)
