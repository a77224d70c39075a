package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	MinThreads  = 1
	MaxThreads  = 20
	MinPageSize = 1
	MaxPageSize = 1000
)

// ReadingFrequencies lists the reading frequency types accepted by the measurements query.
var ReadingFrequencies = []string{
	"DAILY", "DAY_INTERVAL", "FIFTEEN_MIN_INTERVAL", "FIVE_MIN_INTEVAL", "HOUR_INTERVAL",
	"MONTH_INTERVAL", "POINT_IN_TIME", "QUARTER_INTERVAL", "RAW_INTERVAL", "THIRTY_MIN_INTERVAL",
}

var accountNumberRegexp = regexp.MustCompile(`^[A-Z]-[0-9A-F]{8}$`)

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

func ValidatePageSize(first int) error {
	if first < MinPageSize || first > MaxPageSize {
		return fmt.Errorf("page size must be between %d and %d, got %d", MinPageSize, MaxPageSize, first)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateAccountNumber checks the Kraken account number shape, e.g. A-1B2C3D4E.
func ValidateAccountNumber(number string) error {
	if !accountNumberRegexp.MatchString(number) {
		return fmt.Errorf("invalid account number: %q (expected something like A-1B2C3D4E)", number)
	}
	return nil
}

// ValidateEndpoint requires an absolute http(s) URL with a host.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: must be an absolute http or https URL", endpoint)
	}
	return nil
}

func ValidateReadingFrequency(freq string) error {
	for _, f := range ReadingFrequencies {
		if f == freq {
			return nil
		}
	}
	return fmt.Errorf("invalid reading frequency: %s (must be one of: %s)", freq, strings.Join(ReadingFrequencies, ", "))
}

func ValidateTimeRange(from, to time.Time) error {
	if !from.Before(to) {
		return fmt.Errorf("start %s must be before end %s", from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}
