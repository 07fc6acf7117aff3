// Package constants provides shared constants for the mortgage-sim application.
package constants

// FeedDateLayout is the date format the regulator rate feed expects and emits.
const FeedDateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percent/decimal conversions
	PercentageMultiplier = 100.0

	// RateTolerance is the tolerance for rate round-trip comparisons
	RateTolerance = 1e-9

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Currency codes accepted on form submissions.
const (
	// CurrencyPEN is the Peruvian sol
	CurrencyPEN = "PEN"

	// CurrencyUSD is the US dollar
	CurrencyUSD = "USD"
)

// Rate feed query values for the supported currencies.
const (
	// FeedCurrencyMN maps PEN to the feed's moneda-nacional section
	FeedCurrencyMN = "mn"

	// FeedCurrencyUSD maps USD to the feed's dollar section
	FeedCurrencyUSD = "usd"

	// FeedMortgageCreditType is the credit-type row carrying mortgage rates
	FeedMortgageCreditType = "Hipotecarios"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultSessionFile is the default persisted-session file name
	DefaultSessionFile = "session.yaml"
)

// Service defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8090"

	// DefaultRateFeedURL is the default base URL for the regulator rate feed
	DefaultRateFeedURL = "http://127.0.0.1:8082"

	// DefaultCalculatorURL is the default base URL for the mortgage calculation service
	DefaultCalculatorURL = "http://localhost:8080/api/v1/mortgage"
)
