// Package config provides a reusable loader for clawnet node configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/claw-network/clawnet/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified node configuration (spec §6.3). It mirrors the
// structure of the optional YAML config files Load reads plus
// environment variable overrides.
type Config struct {
	DataDir          string   `mapstructure:"dataDir" json:"dataDir"`
	APIListen        string   `mapstructure:"apiListen" json:"apiListen"`
	APIEnable        bool     `mapstructure:"apiEnable" json:"apiEnable"`
	P2PListen        []string `mapstructure:"p2pListen" json:"p2pListen"`
	Bootstrap        []string `mapstructure:"bootstrap" json:"bootstrap"`
	Passphrase       string   `mapstructure:"passphrase" json:"passphrase"`
	HealthIntervalMS int      `mapstructure:"healthIntervalMs" json:"healthIntervalMs"`
	Network          string   `mapstructure:"network" json:"network"`
	DiscoveryTag     string   `mapstructure:"discoveryTag" json:"discoveryTag"`
}

// defaults applied before any file or environment overrides are merged in.
func defaults() Config {
	return Config{
		DataDir:          "./data",
		APIListen:        ":8080",
		APIEnable:        true,
		P2PListen:        []string{"/ip4/0.0.0.0/tcp/0"},
		HealthIntervalMS: 5000,
		Network:          "devnet",
		DiscoveryTag:     "clawnet-devnet",
	}
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads an optional default.yaml from ./config or the working
// directory plus the current environment (CLAWNET_-prefixed variables),
// merges them over the package defaults, and stores the result in
// AppConfig. env selects an additional override file layered on top of
// "default" (e.g. "testnet" merges config/testnet.yaml); an empty env
// skips the merge.
func Load(env string) (*Config, error) {
	_ = godotenv.Load() // optional .env in the working directory; absence is not an error

	AppConfig = defaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("CLAWNET")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the CLAWNET_NETWORK environment
// variable to select the override file merged over the defaults.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("CLAWNET_NETWORK", ""))
}
