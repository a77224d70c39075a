package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/client"
	"github.com/habedi/krakn/pkg/clierr"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const loginHint = "Run 'krakn login' to sign in."

// toCLIError maps errors from the token store and the API client to user-facing errors.
func toCLIError(err error) *clierr.Error {
	var cliErr *clierr.Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var gqlErrs client.GraphQLErrors
	var transportErr *client.TransportError
	switch {
	case errors.Is(err, auth.ErrLoginFailed):
		msg := err.Error()
		return clierr.New(clierr.Auth, strings.ToUpper(msg[:1])+msg[1:], err)
	case errors.Is(err, auth.ErrLoginRequired):
		return clierr.New(clierr.Auth, "Not logged in or the session has expired. "+loginHint, err)
	case errors.Is(err, client.ErrNoEndpoint):
		return clierr.New(clierr.Validation, "No API endpoint available. "+loginHint, err)
	case errors.As(err, &gqlErrs):
		return clierr.New(clierr.API, "The API returned errors:\n"+gqlErrs.Error(), err)
	case errors.As(err, &transportErr):
		return clierr.New(clierr.Transport, "Could not reach the API: "+transportErr.Error(), err)
	case errors.Is(err, context.Canceled):
		return clierr.New(clierr.Internal, "Operation cancelled.", err)
	default:
		return clierr.New(clierr.Internal, err.Error(), err)
	}
}

// reportError prints err and returns the exit code for it.
func reportError(cmd *cobra.Command, err error) int {
	cliErr := toCLIError(err)
	cmd.PrintErrln("Error: " + cliErr.Message)
	log.Error().Err(err).Str("type", string(cliErr.Type)).Msg("Command execution failed.")
	return cliErr.ExitCode()
}

func validationError(err error) error {
	return clierr.New(clierr.Validation, err.Error(), err)
}

// prompter reads answers from the command's input. One reader is shared by all
// prompts so buffered input is not lost between them.
type prompter struct {
	cmd    *cobra.Command
	in     io.Reader
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{cmd: cmd, in: in, reader: bufio.NewReader(in)}
}

// input prints prompt and returns the next trimmed line.
func (p *prompter) input(prompt string) (string, error) {
	p.cmd.Print(prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// password reads a password without echo when the input is a terminal.
func (p *prompter) password(prompt string) (string, error) {
	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.input(prompt)
	}
	p.cmd.Print(prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	p.cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// parseTimeFlag accepts RFC 3339 timestamps and YYYY-MM-DD dates in local time.
func parseTimeFlag(name, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --%s %q: use YYYY-MM-DD or an RFC 3339 timestamp", name, value)
}
