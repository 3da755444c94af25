package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNetAddress_String tests the String method of NetAddress
func TestNetAddress_String(t *testing.T) {
	tests := []struct {
		name     string
		addr     NetAddress
		expected string
	}{
		{
			name:     "empty address",
			addr:     NetAddress{},
			expected: "",
		},
		{
			name:     "localhost with port",
			addr:     NetAddress{Host: "localhost", Port: 8000},
			expected: "localhost:8000",
		},
		{
			name:     "IP address with port",
			addr:     NetAddress{Host: "127.0.0.1", Port: 9090},
			expected: "127.0.0.1:9090",
		},
		{
			name:     "only port no host",
			addr:     NetAddress{Host: "", Port: 8000},
			expected: ":8000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.addr.String()
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestNetAddress_Set tests the Set method of NetAddress
func TestNetAddress_Set(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expected    NetAddress
	}{
		{
			name:     "valid localhost address",
			input:    "localhost:8000",
			expected: NetAddress{Host: "localhost", Port: 8000},
		},
		{
			name:     "valid IP address",
			input:    "127.0.0.1:9090",
			expected: NetAddress{Host: "127.0.0.1", Port: 9090},
		},
		{
			name:     "empty host binds all interfaces",
			input:    ":8000",
			expected: NetAddress{Host: "", Port: 8000},
		},
		{
			name:        "missing port",
			input:       "localhost",
			expectError: true,
		},
		{
			name:        "non-numeric port",
			input:       "localhost:abc",
			expectError: true,
		},
		{
			name:        "zero port",
			input:       "localhost:0",
			expectError: true,
		},
		{
			name:        "bogus hostname",
			input:       "not an ip:8000",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := &NetAddress{}
			err := addr.Set(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *addr)
		})
	}
}

// TestParseFlags tests flag parsing into a Config
func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "localhost:8000",
				"-request-timeout", "45s",
				"-d", "postgresql://localhost/ai_platform",
				"-test-database", "postgresql://localhost/ai_platform_test",
				"-r", "redis://localhost:6379/1",
				"-c", "/etc/platform/config.json",
				"-environment", "test",
				"-app-name", "platform",
				"-debug",
				"-web3", "http://localhost:8545",
				"-contract", "0x00000000000000000000000000000000000000aa",
				"-treasury", "0x00000000000000000000000000000000000000bb",
				"-rate-limit-requests", "50",
				"-rate-limit-window", "30",
				"-max-agents", "2",
				"-task-timeout", "60",
				"-initial-supply", "1000",
				"-min-stake", "10",
				"-fee", "1.5",
				"-min-listing-price", "0.25",
				"-token-expire", "15",
				"-log-level", "warn",
				"-log-format", "console",
				"-task-workers", "2",
				"-sweep-interval", "30s",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost:8000", cfg.Server.Address)
				assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, "postgresql://localhost/ai_platform", cfg.Storage.DatabaseURL)
				assert.Equal(t, "postgresql://localhost/ai_platform_test", cfg.Storage.TestDatabaseURL)
				assert.Equal(t, "redis://localhost:6379/1", cfg.Storage.RedisURL)
				assert.Equal(t, "/etc/platform/config.json", cfg.JSONFilePath)
				assert.Equal(t, "test", cfg.App.Environment)
				assert.Equal(t, "platform", cfg.App.Name)
				assert.True(t, cfg.App.Debug)
				assert.Equal(t, "http://localhost:8545", cfg.Chain.ProviderURL)
				assert.Equal(t, "0x00000000000000000000000000000000000000aa", cfg.Chain.ContractAddress)
				assert.Equal(t, "0x00000000000000000000000000000000000000bb", cfg.Chain.TreasuryAddress)
				assert.Equal(t, 50, cfg.RateLimit.Requests)
				assert.Equal(t, 30, cfg.RateLimit.WindowSeconds)
				assert.Equal(t, 2, cfg.Agents.MaxPerUser)
				assert.Equal(t, 60, cfg.Agents.TaskTimeoutSeconds)
				assert.Equal(t, "1000", cfg.Economy.InitialSupply)
				assert.Equal(t, "10", cfg.Economy.MinStake)
				assert.Equal(t, "1.5", cfg.Marketplace.FeePercentage)
				assert.Equal(t, "0.25", cfg.Marketplace.MinListingPrice)
				assert.Equal(t, 15, cfg.Auth.AccessTokenExpireMinutes)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Format)
				assert.Equal(t, 2, cfg.Workers.TaskWorkers)
				assert.Equal(t, 30*time.Second, cfg.Workers.SweepInterval)
			},
		},
		{
			name: "config alias flag",
			args: []string{"-config", "/tmp/alias.json"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/alias.json", cfg.JSONFilePath)
			},
		},
		{
			name: "no flags",
			args: []string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.Server.Address)
				assert.Empty(t, cfg.Storage.DatabaseURL)
				assert.Empty(t, cfg.JSONFilePath)
				assert.Empty(t, cfg.App.Environment)
				assert.False(t, cfg.App.Debug)
				assert.Zero(t, cfg.RateLimit.Requests)
				assert.Zero(t, cfg.Workers.SweepInterval)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flag.CommandLine for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

			// Set os.Args to simulate command line arguments
			oldArgs := os.Args
			os.Args = append([]string{"cmd"}, tt.args...)
			defer func() { os.Args = oldArgs }()

			cfg := ParseFlags()
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

// TestNetAddress_SetAndString tests the round-trip of Set and String
func TestNetAddress_SetAndString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"localhost:8000", "localhost:8000"},
		{"127.0.0.1:9090", "127.0.0.1:9090"},
		{":8000", ":8000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			addr := &NetAddress{}
			err := addr.Set(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, addr.String())
		})
	}
}
