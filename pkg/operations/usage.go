package operations

import (
	"context"
	"time"

	"github.com/habedi/krakn/client"
	"github.com/habedi/krakn/pkg/pool"
	"github.com/rs/zerolog/log"
)

// DefaultReadingFrequency is the reading frequency requested when none is given.
const DefaultReadingFrequency = "RAW_INTERVAL"

// MeasurementFetcher fetches every page of readings for one account.
type MeasurementFetcher interface {
	AllMeasurements(ctx context.Context, tokens client.TokenProvider, q client.MeasurementsQuery, onPage func(total int)) ([]client.Measurement, error)
}

// UsageRow is one reading prepared for display.
type UsageRow struct {
	StartAt     string
	Utility     string
	Usage       float64
	Charges     []float64
	ChargeTotal float64
}

// Summary holds the readings of an account and the values used to scale them.
type Summary struct {
	Rows        []UsageRow
	PeakUsage   float64
	PeakCharge  float64
	TotalUsage  float64
	TotalCharge float64
}

// AccountUsage is the outcome of fetching one account.
type AccountUsage struct {
	Account string
	Summary Summary
	Err     error
}

// DefaultWindow returns the two days before the start of today in now's location.
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -2), today
}

// UtilityFilters requests electricity and gas readings at the given frequency.
func UtilityFilters(frequency string) []client.UtilityFilter {
	if frequency == "" {
		frequency = DefaultReadingFrequency
	}
	return []client.UtilityFilter{
		{ElectricityFilters: &client.ElectricityFilter{ReadingFrequencyType: frequency}},
		{GasFilters: &client.GasFilter{ReadingFrequencyType: frequency}},
	}
}

// SummarizeUsage builds display rows and the peak and total usage and charge.
// Peaks never drop below zero.
func SummarizeUsage(measurements []client.Measurement) Summary {
	s := Summary{Rows: make([]UsageRow, 0, len(measurements))}
	for _, m := range measurements {
		row := UsageRow{
			StartAt: m.StartAt,
			Utility: m.UtilityType(),
			Usage:   m.Usage(),
			Charges: m.Charges(),
		}
		if row.StartAt == "" {
			row.StartAt = m.ReadAt
		}
		for _, c := range row.Charges {
			row.ChargeTotal += c
		}
		s.PeakUsage = max(s.PeakUsage, row.Usage)
		s.PeakCharge = max(s.PeakCharge, row.ChargeTotal)
		s.TotalUsage += row.Usage
		s.TotalCharge += row.ChargeTotal
		s.Rows = append(s.Rows, row)
	}
	return s
}

// FetchUsage fetches and summarizes the readings of several accounts concurrently.
// Results keep the order of accounts; each carries its own error. query.AccountNumber
// is overwritten per account.
func FetchUsage(ctx context.Context, fetcher MeasurementFetcher, tokens client.TokenProvider, accounts []string,
	query client.MeasurementsQuery, numThreads int, onPage func(account string, total int)) []AccountUsage {

	worker := func(ctx context.Context, account string) (Summary, error) {
		q := query
		q.AccountNumber = account
		var progress func(int)
		if onPage != nil {
			progress = func(total int) { onPage(account, total) }
		}
		measurements, err := fetcher.AllMeasurements(ctx, tokens, q, progress)
		if err != nil {
			log.Error().Err(err).Str("account", account).Msg("Failed to fetch measurements")
			return Summary{}, err
		}
		log.Info().Str("account", account).Int("readings", len(measurements)).Msg("Fetched measurements")
		return SummarizeUsage(measurements), nil
	}

	results := pool.Run(ctx, accounts, numThreads, worker)
	if errs := pool.Errors(results); len(errs) > 0 {
		log.Warn().Int("failed", len(errs)).Int("accounts", len(accounts)).Msg("Some accounts could not be fetched")
	}
	usage := make([]AccountUsage, len(results))
	for i, r := range results {
		usage[i] = AccountUsage{Account: r.Item, Summary: r.Value, Err: r.Err}
	}
	return usage
}
