// Package constants provides shared constants for the property-analyzer application.
package constants

// DateLayout is the format expected for every date field of an analysis record.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPlaces is the number of decimal places money is rounded to on output
	DecimalPlaces = 2

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// EquityShareTolerance is how far the partner share total may drift from 100
	EquityShareTolerance = 0.01

	// TotalEquityPercentage is what partner equity shares must add up to
	TotalEquityPercentage = 100.0
)

// MAO defaults, used when the application config leaves them unset.
const (
	// DefaultMaxCashLeft is the cash an investor accepts leaving in a deal
	DefaultMaxCashLeft = 10000.0

	// DefaultLTVPercentage is used when no loan in the record carries an LTV
	DefaultLTVPercentage = 75.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// ServerEnvPrefix prefixes environment overrides of the server settings,
	// e.g. ANALYZER_ADDRESS or ANALYZER_STORE_BACKEND.
	ServerEnvPrefix = "ANALYZER"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)
