package client

import (
	"strconv"
	"strings"
	"time"
)

// Utility typenames reported in measurement metadata.
const (
	ElectricityFilters = "ElectricityFiltersOutput"
	GasFilters         = "GasFiltersOutput"
)

// Viewer is the account user behind the session token.
type Viewer struct {
	PreferredName string    `json:"preferredName"`
	Email         string    `json:"email"`
	Accounts      []Account `json:"accounts"`
}

type Account struct {
	Number      string `json:"number"`
	Status      string `json:"status"`
	AccountType string `json:"accountType"`
	// Balance is in pence.
	Balance    int64       `json:"balance"`
	Address    RichAddress `json:"address"`
	Properties []Property  `json:"properties"`
}

type RichAddress struct {
	StreetAddress string `json:"streetAddress"`
	Locality      string `json:"locality"`
	PostalCode    string `json:"postalCode"`
}

func (a RichAddress) String() string {
	var parts []string
	for _, p := range []string{a.StreetAddress, a.Locality, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Property struct {
	Address                string            `json:"address"`
	OccupancyPeriods       []OccupancyPeriod `json:"occupancyPeriods"`
	ElectricityMeterPoints []MeterPoint      `json:"electricityMeterPoints"`
	GasMeterPoints         []MeterPoint      `json:"gasMeterPoints"`
}

type OccupancyPeriod struct {
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   *string `json:"effectiveTo"`
}

type MeterPoint struct {
	ID string `json:"id"`
}

// ElectricityFilter narrows electricity measurements.
type ElectricityFilter struct {
	DeviceID             string `json:"deviceId,omitempty"`
	MarketSupplyPointID  string `json:"marketSupplyPointId,omitempty"`
	ReadingDirection     string `json:"readingDirection,omitempty"`
	ReadingFrequencyType string `json:"readingFrequencyType,omitempty"`
	ReadingQuality       string `json:"readingQuality,omitempty"`
	RegisterID           string `json:"registerId,omitempty"`
}

// GasFilter narrows gas measurements.
type GasFilter struct {
	DeviceID             string `json:"deviceId,omitempty"`
	MarketSupplyPointID  string `json:"marketSupplyPointId,omitempty"`
	ReadingFrequencyType string `json:"readingFrequencyType,omitempty"`
	RegisterID           string `json:"registerId,omitempty"`
}

// UtilityFilter holds exactly one of its fields.
type UtilityFilter struct {
	ElectricityFilters *ElectricityFilter `json:"electricityFilters,omitempty"`
	GasFilters         *GasFilter         `json:"gasFilters,omitempty"`
}

// MeasurementsQuery are the variables of the getMeasurements query.
type MeasurementsQuery struct {
	AccountNumber  string          `json:"accountNumber"`
	First          int             `json:"first"`
	UtilityFilters []UtilityFilter `json:"utilityFilters,omitempty"`
	StartAt        *time.Time      `json:"startAt,omitempty"`
	EndAt          *time.Time      `json:"endAt,omitempty"`
	Timezone       string          `json:"timezone,omitempty"`
	Cursor         string          `json:"cursor,omitempty"`
}

type EstimatedMoney struct {
	EstimatedAmount string `json:"estimatedAmount"`
	CostCurrency    string `json:"costCurrency"`
}

type Statistic struct {
	Type        string          `json:"type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Value       string          `json:"value"`
	CostExclTax *EstimatedMoney `json:"costExclTax"`
	CostInclTax *EstimatedMoney `json:"costInclTax"`
}

type MeasurementMetaData struct {
	Statistics     []Statistic `json:"statistics"`
	UtilityFilters struct {
		Typename string `json:"__typename"`
	} `json:"utilityFilters"`
}

// Measurement is one interval reading.
type Measurement struct {
	Value    string              `json:"value"`
	Unit     string              `json:"unit"`
	Source   string              `json:"source"`
	ReadAt   string              `json:"readAt"`
	StartAt  string              `json:"startAt"`
	EndAt    string              `json:"endAt"`
	MetaData MeasurementMetaData `json:"metaData"`
}

// Usage returns the reading as a number, or 0 when it does not parse.
func (m Measurement) Usage() float64 {
	v, err := strconv.ParseFloat(m.Value, 64)
	if err != nil {
		return 0
	}
	return v
}

// Charges returns the tax-inclusive cost of each statistic in pence. Statistics
// without a cost count as 0.
func (m Measurement) Charges() []float64 {
	charges := make([]float64, 0, len(m.MetaData.Statistics))
	for _, s := range m.MetaData.Statistics {
		amount := 0.0
		if s.CostInclTax != nil {
			if v, err := strconv.ParseFloat(s.CostInclTax.EstimatedAmount, 64); err == nil {
				amount = v
			}
		}
		charges = append(charges, amount)
	}
	return charges
}

// UtilityType returns the utility filter typename of the reading.
func (m Measurement) UtilityType() string {
	return m.MetaData.UtilityFilters.Typename
}

// MeasurementsPage is one page of readings for the account's first property.
type MeasurementsPage struct {
	Measurements []Measurement
	HasNextPage  bool
	EndCursor    string
}
