package server

// Server is the lifecycle contract of the platform's HTTP front.
type Server interface {
	// RunServer starts serving requests and blocks until a shutdown
	// signal arrives.
	RunServer()

	// Shutdown stops the server and releases its resources.
	Shutdown()
}
