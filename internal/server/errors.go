// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// errNoServersAreCreated means the configuration carries no listen address,
// so there is nothing to serve.
var errNoServersAreCreated = errors.New("no servers are created")
