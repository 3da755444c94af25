package devstack

import "errors"

var (
	// ErrMissingTool means a required external binary is not on PATH.
	ErrMissingTool = errors.New("required tool not found")

	// ErrStepFailed wraps the error of the step that aborted the run.
	ErrStepFailed = errors.New("provisioning step failed")
)
