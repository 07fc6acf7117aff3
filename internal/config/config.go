// Package config defines the application configuration and the functions for
// loading and validating it.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hipotecaperu/mortgage-sim/pkg/constants"
)

// Configuration holds all configuration for mortgage-sim.
type Configuration struct {
	RateFeed   RateFeed
	Calculator Calculator
	Server     Server
	Session    Session
	Logging    Logging
}

// RateFeed holds the live bank-rate feed parameters.
type RateFeed struct {
	URL             string
	TimeoutSeconds  int
	DefaultCurrency string
}

// Calculator holds the calculation-service parameters.
type Calculator struct {
	URL            string
	TimeoutSeconds int
}

// Server holds the HTTP listener parameters.
type Server struct {
	Address string
}

// Session holds the persisted-login parameters.
type Session struct {
	FilePath string
}

// Logging holds the log output parameters.
type Logging struct {
	Level  string
	Format string
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

func setDefaults() {
	viper.SetDefault("ratefeed.url", constants.DefaultRateFeedURL)
	viper.SetDefault("ratefeed.timeoutseconds", 15)
	viper.SetDefault("ratefeed.defaultcurrency", constants.CurrencyPEN)
	viper.SetDefault("calculator.url", constants.DefaultCalculatorURL)
	viper.SetDefault("calculator.timeoutseconds", 30)
	viper.SetDefault("server.address", constants.DefaultServerAddress)
	viper.SetDefault("session.filepath", constants.DefaultSessionFile)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// Validate checks the loaded configuration for values the application cannot
// run with.
func (conf *Configuration) Validate() error {
	if conf.RateFeed.URL == "" {
		return fmt.Errorf("ratefeed.url must not be empty")
	}
	if conf.Calculator.URL == "" {
		return fmt.Errorf("calculator.url must not be empty")
	}
	if conf.RateFeed.TimeoutSeconds <= 0 {
		return fmt.Errorf("ratefeed.timeoutseconds must be positive, got %d", conf.RateFeed.TimeoutSeconds)
	}
	if conf.Calculator.TimeoutSeconds <= 0 {
		return fmt.Errorf("calculator.timeoutseconds must be positive, got %d", conf.Calculator.TimeoutSeconds)
	}
	switch conf.RateFeed.DefaultCurrency {
	case constants.CurrencyPEN, constants.CurrencyUSD:
	default:
		return fmt.Errorf("ratefeed.defaultcurrency must be %s or %s, got %q",
			constants.CurrencyPEN, constants.CurrencyUSD, conf.RateFeed.DefaultCurrency)
	}
	return nil
}
