package cmd

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/habedi/krakn/client"
	"github.com/habedi/krakn/pkg/format"
	"github.com/habedi/krakn/pkg/operations"
	"github.com/habedi/krakn/pkg/validation"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const barWidth = 20

type usageFlags struct {
	accounts  []string
	from      string
	to        string
	first     int
	frequency string
	timezone  string
	threads   int
}

// query validates the flags and turns them into the measurements query.
func (f usageFlags) query(now time.Time) (client.MeasurementsQuery, error) {
	if len(f.accounts) == 0 {
		return client.MeasurementsQuery{}, errors.New("at least one --account is required")
	}
	for i, acct := range f.accounts {
		f.accounts[i] = strings.ToUpper(strings.TrimSpace(acct))
		if err := validation.ValidateAccountNumber(f.accounts[i]); err != nil {
			return client.MeasurementsQuery{}, err
		}
	}
	if err := validation.ValidatePageSize(f.first); err != nil {
		return client.MeasurementsQuery{}, err
	}
	if err := validation.ValidateThreadCount(f.threads); err != nil {
		return client.MeasurementsQuery{}, err
	}
	frequency := strings.ToUpper(f.frequency)
	if err := validation.ValidateReadingFrequency(frequency); err != nil {
		return client.MeasurementsQuery{}, err
	}

	from, to := operations.DefaultWindow(now)
	var err error
	if f.from != "" {
		if from, err = parseTimeFlag("from", f.from); err != nil {
			return client.MeasurementsQuery{}, err
		}
	}
	if f.to != "" {
		if to, err = parseTimeFlag("to", f.to); err != nil {
			return client.MeasurementsQuery{}, err
		}
	}
	if err := validation.ValidateTimeRange(from, to); err != nil {
		return client.MeasurementsQuery{}, err
	}

	return client.MeasurementsQuery{
		First:          f.first,
		UtilityFilters: operations.UtilityFilters(frequency),
		StartAt:        &from,
		EndAt:          &to,
		Timezone:       f.timezone,
	}, nil
}

// usageCmd shows interval readings and charges for one or more accounts.
func usageCmd() *cobra.Command {
	var flags usageFlags

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show energy usage and charges for accounts",
		Long: "Show interval readings and estimated charges for one or more accounts.\n" +
			"The default window is the two days before today.",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			q, err := flags.query(time.Now())
			if err != nil {
				return validationError(err)
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Fetching readings..."),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			var mu sync.Mutex
			perAccount := make(map[string]int, len(flags.accounts))
			onPage := func(account string, total int) {
				mu.Lock()
				defer mu.Unlock()
				perAccount[account] = total
				sum := 0
				for _, n := range perAccount {
					sum += n
				}
				_ = bar.Set(sum)
			}

			results := operations.FetchUsage(cmd.Context(), a.api, a.auth, flags.accounts, q, flags.threads, onPage)
			_ = bar.Finish()

			var errs []error
			for _, r := range results {
				if r.Err != nil {
					cmd.PrintErrf("Account %s: %v\n", r.Account, r.Err)
					errs = append(errs, r.Err)
					continue
				}
				printUsage(cmd, r)
			}
			return errors.Join(errs...)
		}),
	}

	cmd.Flags().StringSliceVarP(&flags.accounts, "account", "a", nil, "Account number to show (repeatable)")
	cmd.Flags().StringVar(&flags.from, "from", "", "Start of the window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&flags.to, "to", "", "End of the window (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().IntVar(&flags.first, "first", 1000, "Readings per page [1-1000]")
	cmd.Flags().StringVarP(&flags.frequency, "frequency", "f", operations.DefaultReadingFrequency, "Reading frequency, e.g. RAW_INTERVAL, HOUR_INTERVAL, DAILY")
	cmd.Flags().StringVar(&flags.timezone, "timezone", "", "Time zone for interval boundaries, e.g. Europe/London")
	cmd.Flags().IntVarP(&flags.threads, "threads", "t", 4, "Number of accounts fetched in parallel [1-20]")

	return cmd
}

func printUsage(cmd *cobra.Command, r operations.AccountUsage) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nAccount %s usage\n", r.Account)
	if len(r.Summary.Rows) == 0 {
		fmt.Fprintln(out, "No readings in this window.")
		return
	}

	// Footers are title-cased by default, which would turn "p" into "P".
	table := newTable(out, []string{"TIME", "TYPE", "USAGE", "", "CHARGES", ""})
	table.SetAutoFormatHeaders(false)
	for _, row := range r.Summary.Rows {
		charges := make([]string, 0, len(row.Charges))
		for _, c := range row.Charges {
			charges = append(charges, format.Pence(c))
		}
		table.Append([]string{
			row.StartAt,
			format.UtilityIcon(row.Utility),
			format.Number(row.Usage),
			format.Bar(row.Usage, r.Summary.PeakUsage, barWidth),
			strings.Join(charges, " "),
			format.Bar(row.ChargeTotal, r.Summary.PeakCharge, barWidth),
		})
	}
	table.SetFooter([]string{"TOTAL", "", format.Number(r.Summary.TotalUsage), "", format.Pence(r.Summary.TotalCharge), ""})
	table.Render()
}
