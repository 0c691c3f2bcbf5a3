package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"yieldScope/internal/sources"
)

const DefaultChain = "ethereum"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Chain     string
	Pools     []string
	PoolsFile string

	StakeDAO bool
	Beefy    bool
	// StakeDAOFlag and BeefyFlag are set only when the flag was given on the
	// command line; they outrank the pools file.
	StakeDAOFlag *bool
	BeefyFlag    *bool

	VaultID  string
	Strategy string

	CurveURL    string
	StakeDAOURL string
	BeefyURL    string
	RPCURLs     map[string]string

	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	Format      string
	CSV         string
	JSONL       string
	PGDSN       string
	MetricsFile string
	Listen      string
	CORSOrigins []string
	LogLevel    string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain", DefaultChain)
	v.SetDefault("stakedao", false)
	v.SetDefault("beefy", false)
	v.SetDefault("curve-url", sources.DefaultCurveURL)
	v.SetDefault("stakedao-url", sources.DefaultStakeDAOURL)
	v.SetDefault("beefy-url", sources.DefaultBeefyURL)
	v.SetDefault("http-timeout", 30*time.Second)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", 250*time.Millisecond)
	v.SetDefault("format", "table")
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Chain:        strings.ToLower(strings.TrimSpace(v.GetString("chain"))),
		Pools:        getStringSlice(v, "pool"),
		PoolsFile:    v.GetString("pools"),
		StakeDAO:     v.GetBool("stakedao"),
		Beefy:        v.GetBool("beefy"),
		StakeDAOFlag: changedBool(flags, "stakedao"),
		BeefyFlag:    changedBool(flags, "beefy"),
		VaultID:      strings.TrimSpace(v.GetString("vault-id")),
		Strategy:     strings.TrimSpace(v.GetString("strategy")),
		CurveURL:     v.GetString("curve-url"),
		StakeDAOURL:  v.GetString("stakedao-url"),
		BeefyURL:     v.GetString("beefy-url"),
		RPCURLs:      getStringMap(v, "rpc-urls"),
		HTTPTimeout:  v.GetDuration("http-timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Format:       strings.ToLower(v.GetString("format")),
		CSV:          v.GetString("csv"),
		JSONL:        v.GetString("jsonl"),
		PGDSN:        v.GetString("pg-dsn"),
		MetricsFile:  v.GetString("metrics-file"),
		Listen:       v.GetString("listen"),
		CORSOrigins:  getStringSlice(v, "cors-origins"),
		LogLevel:     v.GetString("log-level"),
	}
	if cfg.Chain == "" {
		cfg.Chain = DefaultChain
	}

	switch cfg.Format {
	case "table", "json", "csv":
	default:
		return Config{}, fmt.Errorf("unsupported format %q", cfg.Format)
	}

	return cfg, nil
}

// changedBool returns the flag value only when it was given explicitly.
func changedBool(flags *pflag.FlagSet, name string) *bool {
	if flags == nil {
		return nil
	}
	flag := flags.Lookup(name)
	if flag == nil || !flag.Changed {
		return nil
	}
	value, err := flags.GetBool(name)
	if err != nil {
		return nil
	}
	return &value
}
