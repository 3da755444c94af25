// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators holds the input validation rules the platform enforces
// before data reaches the services: credential strength, wallet address
// shape, listing prices, agent names and task payload limits.
//
// Services receive a [Validator] by injection. Field names passed to
// Validate narrow the check to a subset of the value, so partial updates
// only validate what they touch.
package validators

import "context"

// Validator validates arbitrary input values. Implementations may perform
// structural validation, semantic checks, cross-field rules.
type Validator interface {

	// Validate validates the provided input and optionally restricts
	// validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
