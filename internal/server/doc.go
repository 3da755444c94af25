// Package server wires and runs the platform's HTTP server.
//
// It provides lifecycle orchestration: startup, signal handling and graceful
// shutdown, including the background workers that run alongside the listener.
package server
