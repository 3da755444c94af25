package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database connection string
//	-test-database test database connection string
//	-r redis connection string
//	-c/-config json file path with configs
//	-environment deployment environment (development, test, production)
//	-app-name application name
//	-debug enable debug behavior
//	-web3 chain JSON-RPC endpoint
//	-contract platform token contract address
//	-treasury treasury wallet address
//	-rate-limit-requests requests allowed per window
//	-rate-limit-window window length in seconds
//	-max-agents agent ceiling per user
//	-task-timeout task deadline in seconds
//	-initial-supply treasury bootstrap amount
//	-min-stake minimum stake amount
//	-fee marketplace fee in percent
//	-min-listing-price listing price floor
//	-token-expire access token lifetime in minutes
//	-log-level minimum log level
//	-log-format log output format (json, console)
//	-task-workers task dispatcher goroutines
//	-sweep-interval background sweep interval (e.g., "1m")
//	-request-timeout request timeout (e.g., "30s", "1m")
func ParseFlags() *Config {
	var serverAddress NetAddress
	var requestTimeout time.Duration
	var databaseURL, testDatabaseURL, redisURL string
	var jsonConfigPath string
	var environment, appName string
	var debug bool
	var web3Provider, contractAddress, treasuryAddress string
	var rateLimitRequests, rateLimitWindow int
	var maxAgents, taskTimeout int
	var initialSupply, minStake string
	var feePercentage, minListingPrice string
	var tokenExpire int
	var logLevel, logFormat string
	var taskWorkers int
	var sweepInterval time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&databaseURL, "d", "", "PostgreSQL connection string")
	flag.StringVar(&testDatabaseURL, "test-database", "", "Test database connection string")
	flag.StringVar(&redisURL, "r", "", "Redis connection string")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&environment, "environment", "", "Deployment environment")
	flag.StringVar(&appName, "app-name", "", "Application name")
	flag.BoolVar(&debug, "debug", false, "Enable debug behavior")
	flag.StringVar(&web3Provider, "web3", "", "Chain JSON-RPC endpoint")
	flag.StringVar(&contractAddress, "contract", "", "Platform token contract address")
	flag.StringVar(&treasuryAddress, "treasury", "", "Treasury wallet address")
	flag.IntVar(&rateLimitRequests, "rate-limit-requests", 0, "Requests allowed per rate-limit window")
	flag.IntVar(&rateLimitWindow, "rate-limit-window", 0, "Rate-limit window in seconds")
	flag.IntVar(&maxAgents, "max-agents", 0, "Agent ceiling per user")
	flag.IntVar(&taskTimeout, "task-timeout", 0, "Task deadline in seconds")
	flag.StringVar(&initialSupply, "initial-supply", "", "Treasury bootstrap amount")
	flag.StringVar(&minStake, "min-stake", "", "Minimum stake amount")
	flag.StringVar(&feePercentage, "fee", "", "Marketplace fee in percent")
	flag.StringVar(&minListingPrice, "min-listing-price", "", "Listing price floor")
	flag.IntVar(&tokenExpire, "token-expire", 0, "Access token lifetime in minutes")
	flag.StringVar(&logLevel, "log-level", "", "Minimum log level")
	flag.StringVar(&logFormat, "log-format", "", "Log output format (json, console)")
	flag.IntVar(&taskWorkers, "task-workers", 0, "Task dispatcher goroutines")
	flag.DurationVar(&sweepInterval, "sweep-interval", 0, "Background sweep interval (e.g., 1m)")

	flag.Parse()

	return &Config{
		App: App{
			Environment: environment,
			Debug:       debug,
			Name:        appName,
		},
		Server: Server{
			Address:        serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Storage: Storage{
			DatabaseURL:     databaseURL,
			TestDatabaseURL: testDatabaseURL,
			RedisURL:        redisURL,
		},
		Chain: Chain{
			ProviderURL:     web3Provider,
			ContractAddress: contractAddress,
			TreasuryAddress: treasuryAddress,
		},
		RateLimit: RateLimit{
			Requests:      rateLimitRequests,
			WindowSeconds: rateLimitWindow,
		},
		Agents: Agents{
			MaxPerUser:         maxAgents,
			TaskTimeoutSeconds: taskTimeout,
		},
		Economy: Economy{
			InitialSupply: initialSupply,
			MinStake:      minStake,
		},
		Marketplace: Marketplace{
			FeePercentage:   feePercentage,
			MinListingPrice: minListingPrice,
		},
		Auth: Auth{
			AccessTokenExpireMinutes: tokenExpire,
		},
		Logging: Logging{
			Level:  logLevel,
			Format: logFormat,
		},
		Workers: Workers{
			TaskWorkers:   taskWorkers,
			SweepInterval: sweepInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "" && host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
