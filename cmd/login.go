package cmd

import (
	"errors"

	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/pkg/config"
	"github.com/habedi/krakn/pkg/validation"
	"github.com/spf13/cobra"
)

type loginFlags struct {
	endpoint     string
	email        string
	apiKey       string
	refreshToken string
	orgSecret    string
	preSignedKey string
}

// loginCmd creates a new cobra.Command for logging in to a Kraken API.
func loginCmd() *cobra.Command {
	var flags loginFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a Kraken API",
		Long: "Log in to a Kraken API and store the session locally.\n" +
			"Without a key flag you are asked for your e-mail address and password.",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			url := config.NormalizeEndpoint(flags.endpoint)
			if url == "" {
				url = a.cfg.Endpoint
			}
			if err := validation.ValidateEndpoint(url); err != nil {
				return validationError(err)
			}

			creds, err := flags.credentials(newPrompter(cmd))
			if err != nil {
				return validationError(err)
			}

			if err := a.auth.Login(cmd.Context(), url, creds); err != nil {
				return err
			}

			cmd.Println("Login was successful.")
			if claims := a.auth.CurrentClaims(); claims != nil && claims.Email != "" {
				cmd.Println("Logged in as", claims.Email)
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&flags.endpoint, "endpoint", "e", "", "Kraken GraphQL endpoint or host name (default from KRAKN_ENDPOINT)")
	cmd.Flags().StringVar(&flags.email, "email", "", "E-mail address; the password is prompted for")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "Log in with an API key")
	cmd.Flags().StringVar(&flags.refreshToken, "refresh-token", "", "Log in with a refresh token")
	cmd.Flags().StringVar(&flags.orgSecret, "org-secret", "", "Log in with an organization secret key")
	cmd.Flags().StringVar(&flags.preSignedKey, "pre-signed-key", "", "Log in with a pre-signed key")
	cmd.MarkFlagsMutuallyExclusive("email", "api-key", "refresh-token", "org-secret", "pre-signed-key")

	return cmd
}

// credentials builds the login input from the flags, prompting for an e-mail
// address and password when no key was given.
func (f loginFlags) credentials(p *prompter) (auth.Credentials, error) {
	creds := auth.Credentials{
		APIKey:                f.apiKey,
		RefreshToken:          f.refreshToken,
		OrganizationSecretKey: f.orgSecret,
		PreSignedKey:          f.preSignedKey,
	}
	if creds.Kind() != "" {
		if f.email != "" {
			return creds, errors.New("--email cannot be combined with a key flag")
		}
		return creds, creds.Validate()
	}

	email := f.email
	if email == "" {
		var err error
		if email, err = p.input("Email: "); err != nil {
			return creds, err
		}
	}
	password, err := p.password("Password: ")
	if err != nil {
		return creds, err
	}
	if email == "" || password == "" {
		return creds, errors.New("e-mail address and password cannot be empty")
	}

	creds.Email, creds.Password = email, password
	return creds, creds.Validate()
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		}),
	}
}
