// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod returns an [http.HandlerFunc] meant to be registered as
// the router's MethodNotAllowed handler via [chi.Mux.MethodNotAllowed].
//
// Chi answers 405 Method Not Allowed when a path matches a registered route
// but the method does not. This handler answers 404 Not Found instead, so an
// unsupported method does not reveal that the route exists. When the method
// IS registered for the matched route, the request is forwarded to the
// router's normal ServeHTTP pipeline.
//
// The lookup compares each registered route pattern against the raw request
// path, so only exact pattern matches are considered; parameterised or
// wildcard segments are not expanded during this check.
//
// Usage:
//
//	router := chi.NewRouter()
//	// ... register routes ...
//	router.MethodNotAllowed(CheckHTTPMethod(router))
func CheckHTTPMethod(router *chi.Mux) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		// Search for a route whose pattern exactly matches the requested path.
		var matched chi.Route
		for _, route := range router.Routes() {
			if route.Pattern == path {
				matched = route
				break
			}
		}

		// The matched route does not handle this method: answer 404 instead
		// of the default 405 to avoid leaking route existence.
		if _, ok := matched.Handlers[method]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		router.ServeHTTP(w, r)
	}
}
