package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonConfig struct {
	App struct {
		Environment string `json:"environment"`
		Debug       bool   `json:"debug"`
		Name        string `json:"app_name"`
		SecretKey   string `json:"secret_key"`
	} `json:"app,omitempty"`

	Server struct {
		Address        string   `json:"address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Storage struct {
		DatabaseURL     string `json:"database_url"`
		TestDatabaseURL string `json:"database_test_url"`
		RedisURL        string `json:"redis_url"`
	} `json:"storage,omitempty"`

	Providers struct {
		OpenAIKey     string `json:"openai_api_key"`
		AnthropicKey  string `json:"anthropic_api_key"`
		StabilityKey  string `json:"stability_api_key"`
		ElevenLabsKey string `json:"elevenlabs_api_key"`
	} `json:"providers,omitempty"`

	Chain struct {
		ProviderURL     string `json:"web3_provider"`
		ContractAddress string `json:"contract_address"`
		TreasuryAddress string `json:"treasury_address"`
	} `json:"chain,omitempty"`

	RateLimit struct {
		Requests      int `json:"requests"`
		WindowSeconds int `json:"window_seconds"`
	} `json:"rate_limit,omitempty"`

	Agents struct {
		MaxPerUser         int `json:"max_per_user"`
		TaskTimeoutSeconds int `json:"task_timeout_seconds"`
	} `json:"agents,omitempty"`

	Economy struct {
		InitialSupply string `json:"initial_token_supply"`
		MinStake      string `json:"min_stake_amount"`
	} `json:"economy,omitempty"`

	Marketplace struct {
		FeePercentage   string `json:"fee_percentage"`
		MinListingPrice string `json:"min_listing_price"`
	} `json:"marketplace,omitempty"`

	Auth struct {
		JWTAlgorithm             string `json:"jwt_algorithm"`
		AccessTokenExpireMinutes int    `json:"access_token_expire_minutes"`
	} `json:"auth,omitempty"`

	Logging struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"logging,omitempty"`

	Workers struct {
		TaskWorkers   int      `json:"task_workers"`
		SweepInterval Duration `json:"sweep_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg jsonConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		App: App{
			Environment: jsonCfg.App.Environment,
			Debug:       jsonCfg.App.Debug,
			Name:        jsonCfg.App.Name,
			SecretKey:   jsonCfg.App.SecretKey,
		},
		Server: Server{
			Address:        jsonCfg.Server.Address,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Storage: Storage{
			DatabaseURL:     jsonCfg.Storage.DatabaseURL,
			TestDatabaseURL: jsonCfg.Storage.TestDatabaseURL,
			RedisURL:        jsonCfg.Storage.RedisURL,
		},
		Providers: Providers{
			OpenAIKey:     jsonCfg.Providers.OpenAIKey,
			AnthropicKey:  jsonCfg.Providers.AnthropicKey,
			StabilityKey:  jsonCfg.Providers.StabilityKey,
			ElevenLabsKey: jsonCfg.Providers.ElevenLabsKey,
		},
		Chain: Chain{
			ProviderURL:     jsonCfg.Chain.ProviderURL,
			ContractAddress: jsonCfg.Chain.ContractAddress,
			TreasuryAddress: jsonCfg.Chain.TreasuryAddress,
		},
		RateLimit: RateLimit{
			Requests:      jsonCfg.RateLimit.Requests,
			WindowSeconds: jsonCfg.RateLimit.WindowSeconds,
		},
		Agents: Agents{
			MaxPerUser:         jsonCfg.Agents.MaxPerUser,
			TaskTimeoutSeconds: jsonCfg.Agents.TaskTimeoutSeconds,
		},
		Economy: Economy{
			InitialSupply: jsonCfg.Economy.InitialSupply,
			MinStake:      jsonCfg.Economy.MinStake,
		},
		Marketplace: Marketplace{
			FeePercentage:   jsonCfg.Marketplace.FeePercentage,
			MinListingPrice: jsonCfg.Marketplace.MinListingPrice,
		},
		Auth: Auth{
			JWTAlgorithm:             jsonCfg.Auth.JWTAlgorithm,
			AccessTokenExpireMinutes: jsonCfg.Auth.AccessTokenExpireMinutes,
		},
		Logging: Logging{
			Level:  jsonCfg.Logging.Level,
			Format: jsonCfg.Logging.Format,
		},
		Workers: Workers{
			TaskWorkers:   jsonCfg.Workers.TaskWorkers,
			SweepInterval: time.Duration(jsonCfg.Workers.SweepInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
