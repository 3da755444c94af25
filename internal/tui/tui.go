package tui

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/go-agent-platform/internal/devstack"
)

// ErrUserQuit means the user aborted the progress view before the run ended.
var ErrUserQuit = errors.New("aborted by user")

// Interactive reports whether stdout is a terminal. Piped output falls back
// to plain log lines.
func Interactive() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// RunProgress renders the provisioning run until the event channel closes or
// the user aborts. It returns the run's failure, if the runner reported one.
func RunProgress(title string, steps []string, events <-chan devstack.Event) error {
	model := NewProgressModel(title, steps, events)

	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(ProgressModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	if result.QuitByUser() {
		return ErrUserQuit
	}

	return result.Err()
}
