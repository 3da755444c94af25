// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package chain

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// NodeState is the lifecycle state of the dev node process.
type NodeState int

const (
	// NodeStopped means the process is not running and was stopped on
	// request, or never started.
	NodeStopped NodeState = iota

	// NodeStarting means Start was called and the process is being
	// launched.
	NodeStarting

	// NodeRunning means the process is up.
	NodeRunning

	// NodeStopping means Stop was called and the process is being
	// terminated.
	NodeStopping

	// NodeExited means the process died without being asked to stop.
	NodeExited
)

func (s NodeState) String() string {
	switch s {
	case NodeStopped:
		return "stopped"
	case NodeStarting:
		return "starting"
	case NodeRunning:
		return "running"
	case NodeStopping:
		return "stopping"
	case NodeExited:
		return "exited"
	default:
		return "unknown"
	}
}

// defaultStopGrace is how long a stopped node gets to exit on SIGTERM
// before it is killed.
const defaultStopGrace = 5 * time.Second

// Node runs a local dev-chain node as a child process. The node must not
// outlive the run that started it: Stop terminates with SIGTERM and
// escalates to SIGKILL after a grace period.
type Node struct {
	binary string
	args   []string
	logger *logger.Logger

	// Stdout and Stderr receive the process output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	stopGrace time.Duration

	mu      sync.Mutex
	state   NodeState
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// NewNode prepares a runner for the given binary and arguments. Nothing is
// launched until Start.
func NewNode(binary string, args []string, log *logger.Logger) *Node {
	return &Node{
		binary:    binary,
		args:      args,
		logger:    log,
		stopGrace: defaultStopGrace,
		state:     NodeStopped,
	}
}

// Start launches the node process in the background.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == NodeStarting || n.state == NodeRunning || n.state == NodeStopping {
		return ErrNodeAlreadyRunning
	}

	n.state = NodeStarting

	cmd := exec.Command(n.binary, n.args...)
	cmd.Stdout = n.Stdout
	cmd.Stderr = n.Stderr

	if err := cmd.Start(); err != nil {
		n.state = NodeStopped
		return fmt.Errorf("start %s: %w", n.binary, err)
	}

	n.cmd = cmd
	n.state = NodeRunning
	n.done = make(chan struct{})
	n.waitErr = nil

	n.logger.Info().
		Str("binary", n.binary).
		Int("pid", cmd.Process.Pid).
		Msg("dev node started")

	go n.reap()

	return nil
}

// reap waits for the process and records how it went down.
func (n *Node) reap() {
	err := n.cmd.Wait()

	n.mu.Lock()
	n.waitErr = err
	if n.state == NodeStopping {
		n.state = NodeStopped
	} else {
		// Nobody asked for this exit.
		n.state = NodeExited
		n.logger.Warn().
			Err(err).
			Str("binary", n.binary).
			Msg("dev node exited unexpectedly")
	}
	close(n.done)
	n.mu.Unlock()
}

// Stop terminates the node. It sends SIGTERM, waits out the grace period
// and escalates to SIGKILL. Stopping a node that is not running is a no-op,
// which lets callers defer Stop unconditionally.
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	if n.state != NodeRunning {
		n.mu.Unlock()
		return nil
	}
	n.state = NodeStopping
	proc := n.cmd.Process
	done := n.done
	n.mu.Unlock()

	n.logger.Info().Int("pid", proc.Pid).Msg("stopping dev node")

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		// Already gone; the reaper will flip the state.
		n.logger.Debug().Err(err).Msg("sigterm delivery failed")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.stopGrace):
	}

	n.logger.Warn().Int("pid", proc.Pid).Msg("dev node ignored sigterm, killing")
	if err := proc.Kill(); err != nil {
		n.logger.Debug().Err(err).Msg("sigkill delivery failed")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the current lifecycle state.
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Running reports whether the process is up.
func (n *Node) Running() bool {
	return n.State() == NodeRunning
}

// Err returns the exit error of the last run, once the process went down.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.waitErr
}

// PID returns the process identifier, or zero when the node is not
// running.
func (n *Node) PID() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cmd == nil || n.cmd.Process == nil {
		return 0
	}
	if n.state != NodeRunning && n.state != NodeStopping {
		return 0
	}
	return n.cmd.Process.Pid
}
