package cmd

import (
	"fmt"
	"strings"

	"github.com/habedi/krakn/client"
	"github.com/habedi/krakn/pkg/format"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// accountsCmd lists the viewer's accounts and their properties.
func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List your accounts",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			viewer, err := a.api.ViewerAccounts(cmd.Context(), a.auth)
			if err != nil {
				return err
			}
			printAccounts(cmd, viewer)
			log.Info().Int("accounts", len(viewer.Accounts)).Msg("Listed accounts")
			return nil
		}),
	}
}

func printAccounts(cmd *cobra.Command, viewer *client.Viewer) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Hello, %s\n", viewer.PreferredName)
	if len(viewer.Accounts) == 0 {
		fmt.Fprintln(out, "No accounts found.")
		return
	}

	accounts := newTable(out, []string{"Account", "Status", "Type", "Balance", "Address"})
	for _, acct := range viewer.Accounts {
		accounts.Append([]string{
			acct.Number,
			acct.Status,
			acct.AccountType,
			format.Balance(acct.Balance),
			acct.Address.String(),
		})
	}
	accounts.Render()

	properties := newTable(out, []string{"Account", "Property", "Occupied", "Meter points"})
	rows := 0
	for _, acct := range viewer.Accounts {
		for _, p := range acct.Properties {
			periods := make([]string, 0, len(p.OccupancyPeriods))
			for _, op := range p.OccupancyPeriods {
				periods = append(periods, format.Period(op.EffectiveFrom, op.EffectiveTo))
			}
			meters := make([]string, 0, len(p.ElectricityMeterPoints)+len(p.GasMeterPoints))
			for _, mp := range p.ElectricityMeterPoints {
				meters = append(meters, format.UtilityIcon(client.ElectricityFilters)+" "+mp.ID)
			}
			for _, mp := range p.GasMeterPoints {
				meters = append(meters, format.UtilityIcon(client.GasFilters)+" "+mp.ID)
			}
			properties.Append([]string{
				acct.Number,
				strings.ReplaceAll(p.Address, "\n", ", "),
				strings.Join(periods, ", "),
				strings.Join(meters, " "),
			})
			rows++
		}
	}
	if rows > 0 {
		properties.Render()
	}
}
