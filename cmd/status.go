package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd validates the stored session, refreshing it if needed, and shows its claims.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.auth.Check(cmd.Context()); err != nil {
				return err
			}
			claims := a.auth.CurrentClaims()
			if claims == nil {
				return errors.New("session token could not be decoded")
			}

			table := newTable(cmd.OutOrStdout(), []string{"Field", "Value"})
			table.Append([]string{"State", a.auth.Status().State.String()})
			table.Append([]string{"Endpoint", claims.Issuer})
			table.Append([]string{"Subject", claims.Subject})
			if claims.Email != "" {
				table.Append([]string{"E-mail", claims.Email})
			}
			if claims.GrantType != "" {
				table.Append([]string{"Grant type", claims.GrantType})
			}
			if claims.IssuedAt != nil {
				table.Append([]string{"Issued at", claims.IssuedAt.Time.Local().Format(time.RFC1123)})
			}
			if claims.ExpiresAt != nil {
				remaining := time.Until(claims.ExpiresAt.Time).Round(time.Second)
				table.Append([]string{"Expires at", fmt.Sprintf("%s (in %s)", claims.ExpiresAt.Time.Local().Format(time.RFC1123), remaining)})
			}
			table.Render()
			return nil
		}),
	}
}
