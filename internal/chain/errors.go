package chain

import "errors"

var (
	// ErrChainUnreachable wraps transport-level failures talking to the
	// node.
	ErrChainUnreachable = errors.New("chain node unreachable")

	// ErrNodeAlreadyRunning is returned by [Node.Start] when the node
	// process is already up.
	ErrNodeAlreadyRunning = errors.New("dev node already running")

	// ErrInsufficientFunds is returned by [SimChain.Transfer] when the
	// sender cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient balance")
)
