// Package format renders money, dates and utility kinds for terminal output.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2 January 2006"

var printer = message.NewPrinter(language.BritishEnglish)

// Balance formats an account balance given in pence as pounds sterling.
func Balance(pence int64) string {
	return printer.Sprint(currency.Symbol(currency.GBP.Amount(float64(pence) / 100)))
}

// Pence formats an estimated charge, which the API reports in pence. Values are
// rounded to five decimal places to hide float noise in sums.
func Pence(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*1e5)/1e5, 'f', -1, 64) + "p"
}

// Number formats a reading value with en-GB grouping.
func Number(v float64) string {
	return printer.Sprintf("%v", v)
}

// Date renders an RFC 3339 timestamp or a plain YYYY-MM-DD date as "2 January 2006".
// Unparseable input is returned as is.
func Date(raw string) string {
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(dateLayout)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format(dateLayout)
	}
	return raw
}

// Period renders an occupancy period; an open end reads "Present".
func Period(from string, to *string) string {
	end := "Present"
	if to != nil && *to != "" {
		end = Date(*to)
	}
	return Date(from) + " - " + end
}

// UtilityIcon maps a utility filter typename to a short marker.
func UtilityIcon(typename string) string {
	switch typename {
	case "ElectricityFiltersOutput":
		return "⚡️"
	case "GasFiltersOutput":
		return "🔥"
	default:
		return "❓"
	}
}

// Bar draws a proportional bar of at most width cells for value/max.
func Bar(value, max float64, width int) string {
	if max <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	n := int(value / max * float64(width))
	if n > width {
		n = width
	}
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
