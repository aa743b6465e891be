package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/property-analyzer/internal/config"
	"github.com/iwvelando/property-analyzer/internal/equity"
	"github.com/iwvelando/property-analyzer/internal/logging"
	"github.com/iwvelando/property-analyzer/internal/strategy"
	"github.com/iwvelando/property-analyzer/pkg/constants"
	"github.com/iwvelando/property-analyzer/pkg/loans"
	"github.com/iwvelando/property-analyzer/pkg/output"
	"github.com/iwvelando/property-analyzer/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	amortization := flag.Bool("amortization", false, "include the amortization schedule of every loan")
	ownerFlag := flag.String("owner", "", "summarize the portfolio of this owner (overrides config)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	calc := strategy.NewCalculator(logger, strategy.WithMAOConfig(conf.MAO))

	var report output.Report
	for _, property := range conf.Properties {
		metrics, err := calc.Evaluate(property.Type, property)
		if err != nil {
			var verrs validation.Errors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					logger.Error(fmt.Sprintf("%s is invalid: %s", property.Name, fe.Error()),
						zap.String("op", "main"),
						zap.String("field", fe.Field),
					)
				}
				continue
			}
			logger.Error(fmt.Sprintf("failed to analyze %s", property.Name),
				zap.String("op", "main"),
				zap.Error(err),
			)
			continue
		}
		report.Properties = append(report.Properties, metrics)

		if *amortization {
			report.Schedules = append(report.Schedules, schedules(logger, metrics)...)
		}
	}

	owner := conf.Owner
	if *ownerFlag != "" {
		owner = *ownerFlag
	}
	if owner != "" {
		summary, err := equity.ForOwner(logger, calc, owner, conf.Properties)
		if err != nil {
			logger.Warn(fmt.Sprintf("portfolio for %s is missing %d properties", owner, len(summary.Skipped)),
				zap.String("op", "main"),
			)
		}
		report.Portfolio = &summary
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// schedules builds the amortization of each loan carried by the property.
func schedules(logger *zap.Logger, m *strategy.Metrics) []output.Schedule {
	var out []output.Schedule
	for _, detail := range m.Loans {
		s, err := loans.NewSchedule(loans.Terms{
			Name:         detail.Name,
			Principal:    detail.Principal,
			InterestRate: detail.InterestRate,
			TermMonths:   detail.TermMonths,
			InterestOnly: detail.InterestOnly,
		})
		if err != nil {
			logger.Warn(fmt.Sprintf("skipping amortization of %s on %s", detail.Name, m.Name),
				zap.String("op", "main"),
				zap.Error(err),
			)
			continue
		}
		out = append(out, output.Schedule{Property: m.Name, Loan: detail.Name, Entries: s.Entries()})
	}
	return out
}
