package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig maps billing-provider price identifiers to tier names. It is
// versioned and injected rather than hardcoded so tier mapping can change
// without a deploy and tests can run against multiple pricing tables.
type PricingConfig struct {
	Version string            `mapstructure:"version"`
	Prices  map[string]string `mapstructure:"prices"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{Version: "default", Prices: map[string]string{}}
}

// PricingConfigHolder hot-reloads the price table from disk. Readers always
// see a complete table; a bad reload keeps the previous one.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tradecrew/config")
	v.AddConfigPath("/etc/tradecrew")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRADECREW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.version", defaults.Version)
		v.SetDefault("pricing.prices", defaults.Prices)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// NewStaticPricingHolder wraps a fixed table, for tests and embedded use.
func NewStaticPricingHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.Version == "" {
		return errors.New("pricing.version cannot be empty")
	}
	return nil
}
