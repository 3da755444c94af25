// Package config provides configuration loading, merging, and validation
// facilities for the agent platform.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win, later sources fill the gaps):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry point is [GetConfig], which builds the merged configuration
// and validates it before returning.
package config
