// Package devstack provisions a local development environment for the
// platform: it checks the required tooling, prepares the workspace, creates
// the database role and databases, starts the dev chain node, applies the
// schema migrations and runs an end-to-end diagnostics pass.
//
// Steps run sequentially and fail fast: the first failing step aborts the
// run with a descriptive error, and a chain node started by the run never
// outlives it.
package devstack
