package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Chain    ChainConfig    `mapstructure:"chain"`
	Database DatabaseConfig `mapstructure:"database"`
	Bar      BarConfig      `mapstructure:"bar"`
	Chef     ChefConfig     `mapstructure:"chef"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ChainConfig struct {
	Name        string `mapstructure:"name"`
	ChainID     int64  `mapstructure:"chain_id"`
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	StartBlock  uint64 `mapstructure:"start_block"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int32  `mapstructure:"max_connections"`
}

// BarConfig describes the single-asset staking (bar) contract.
type BarConfig struct {
	BarAddress   string `mapstructure:"bar_address"`
	TokenAddress string `mapstructure:"token_address"`
	Manifest     string `mapstructure:"manifest"`
}

// ChefConfig describes the farm (MasterChef) contract. RewardStartBlock is the
// first reward-eligible block; events at or before it never trigger a harvest.
type ChefConfig struct {
	ChefAddress      string `mapstructure:"chef_address"`
	RewardStartBlock uint64 `mapstructure:"reward_start_block"`
	Manifest         string `mapstructure:"manifest"`
}

// PricingConfig carries the pair addresses and block cutovers the price oracle
// needs. Before MigrationBlock rates are read from the legacy factory and
// pairs, after it from the native ones.
type PricingConfig struct {
	USDTAddress          string `mapstructure:"usdt_address"`
	USDTDecimals         int32  `mapstructure:"usdt_decimals"`
	WETHAddress          string `mapstructure:"weth_address"`
	FactoryAddress       string `mapstructure:"factory_address"`
	LegacyFactoryAddress string `mapstructure:"legacy_factory_address"`
	WETHUSDTPairAddress  string `mapstructure:"weth_usdt_pair_address"`
	LegacyWETHUSDTPair   string `mapstructure:"legacy_weth_usdt_pair_address"`
	AceUSDTPairAddress   string `mapstructure:"ace_usdt_pair_address"`
	LegacyAceUSDTPair    string `mapstructure:"legacy_ace_usdt_pair_address"`
	FirstLiquidityBlock  uint64 `mapstructure:"first_liquidity_block"`
	MigrationBlock       uint64 `mapstructure:"migration_block"`
}

type RealtimeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url"`
	APIKey  string `mapstructure:"api_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetEnvPrefix("INDEXER")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("pricing.usdt_decimals", 6)
	viper.SetDefault("bar.manifest", "manifests/bar.yaml")
	viper.SetDefault("chef.manifest", "manifests/masterchef.yaml")
	viper.SetDefault("realtime.enabled", false)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Bar.BarAddress == "" {
		return nil, fmt.Errorf("bar.bar_address is required")
	}
	if config.Chef.ChefAddress == "" {
		return nil, fmt.Errorf("chef.chef_address is required")
	}

	return &config, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}
