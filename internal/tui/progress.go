// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/go-agent-platform/internal/devstack"
)

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// ProgressModel renders a provisioning run: a fixed step list with a spinner
// on the running step and a final error box when a step fails. It consumes
// runner events from a channel and quits once the channel closes.
type ProgressModel struct {
	title   string
	steps   []string
	states  []stepState
	spinner spinner.Model
	events  <-chan devstack.Event

	err        error
	quitByUser bool
}

// NewProgressModel prepares the view for the given step names. The events
// channel must be closed by the producer when the run ends.
func NewProgressModel(title string, steps []string, events <-chan devstack.Event) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return ProgressModel{
		title:   title,
		steps:   steps,
		states:  make([]stepState, len(steps)),
		spinner: s,
		events:  events,
	}
}

// Err returns the failure of the observed run, if any.
func (m ProgressModel) Err() error { return m.err }

// QuitByUser reports whether the user aborted the view.
func (m ProgressModel) QuitByUser() bool { return m.quitByUser }

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitByUser = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepEventMsg:
		m.apply(devstack.Event(msg))
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m *ProgressModel) apply(e devstack.Event) {
	if e.Index < 0 || e.Index >= len(m.states) {
		return
	}

	switch e.Kind {
	case devstack.StepStarted:
		m.states[e.Index] = stepRunning
	case devstack.StepOK:
		m.states[e.Index] = stepDone
	case devstack.StepFailed:
		m.states[e.Index] = stepFailed
		m.err = e.Err
	}
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	for i, name := range m.steps {
		switch m.states[i] {
		case stepRunning:
			b.WriteString(m.spinner.View() + " " + name)
		case stepDone:
			b.WriteString(okStyle.Render("✓") + " " + name)
		case stepFailed:
			b.WriteString(failStyle.Render("✗") + " " + name)
		default:
			b.WriteString(pendingStyle.Render("· " + name))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorBoxStyle.Render(failStyle.Render("provisioning failed") + "\n\n" + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("ctrl+c to abort"))

	return appStyle.Render(b.String())
}

// waitForEvent blocks on the next runner event and converts it into a
// bubbletea message.
func waitForEvent(events <-chan devstack.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return stepEventMsg(e)
	}
}
