package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/habedi/krakn/auth"
	"github.com/rs/zerolog/log"
)

var _ auth.TokenObtainer = (*Client)(nil)

// maxMeasurementPages bounds AllMeasurements against a server that never stops paging.
const maxMeasurementPages = 100

// ObtainToken exchanges credentials for a session token with the obtainKrakenToken mutation.
func (c *Client) ObtainToken(ctx context.Context, url string, creds auth.Credentials) (*auth.ObtainedToken, error) {
	var out struct {
		ObtainKrakenToken *struct {
			Token            string `json:"token"`
			RefreshToken     string `json:"refreshToken"`
			RefreshExpiresIn int64  `json:"refreshExpiresIn"`
		} `json:"obtainKrakenToken"`
	}
	req := Request{
		OperationName: "obtainKrakenToken",
		Query:         obtainKrakenTokenMutation,
		Variables:     map[string]any{"input": creds},
	}
	if err := c.Execute(ctx, url, nil, req, &out); err != nil {
		return nil, err
	}
	if out.ObtainKrakenToken == nil || out.ObtainKrakenToken.Token == "" {
		return nil, errors.New("obtainKrakenToken returned no token")
	}
	return &auth.ObtainedToken{
		Token:            out.ObtainKrakenToken.Token,
		RefreshToken:     out.ObtainKrakenToken.RefreshToken,
		RefreshExpiresIn: out.ObtainKrakenToken.RefreshExpiresIn,
	}, nil
}

// ViewerAccounts fetches the viewer and their accounts. The endpoint comes from the token.
func (c *Client) ViewerAccounts(ctx context.Context, tokens TokenProvider) (*Viewer, error) {
	var out struct {
		Viewer *Viewer `json:"viewer"`
	}
	req := Request{
		OperationName: "getViewerAccounts",
		Query:         viewerAccountsQuery,
		Variables:     map[string]any{},
	}
	if err := c.Execute(ctx, "", tokens, req, &out); err != nil {
		return nil, err
	}
	if out.Viewer == nil {
		return nil, errors.New("getViewerAccounts returned no viewer")
	}
	return out.Viewer, nil
}

// Measurements fetches one page of readings for the first property of an account.
func (c *Client) Measurements(ctx context.Context, tokens TokenProvider, q MeasurementsQuery) (*MeasurementsPage, error) {
	var out struct {
		Account *struct {
			Properties []struct {
				Measurements struct {
					Edges []struct {
						Node Measurement `json:"node"`
					} `json:"edges"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"measurements"`
			} `json:"properties"`
		} `json:"account"`
	}
	req := Request{
		OperationName: "getMeasurements",
		Query:         measurementsQuery,
		Variables:     q,
	}
	if err := c.Execute(ctx, "", tokens, req, &out); err != nil {
		return nil, err
	}
	if out.Account == nil {
		return nil, fmt.Errorf("account %s not found", q.AccountNumber)
	}

	page := &MeasurementsPage{}
	if len(out.Account.Properties) == 0 {
		return page, nil
	}
	conn := out.Account.Properties[0].Measurements
	page.Measurements = make([]Measurement, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		page.Measurements = append(page.Measurements, edge.Node)
	}
	page.HasNextPage = conn.PageInfo.HasNextPage && conn.PageInfo.EndCursor != ""
	page.EndCursor = conn.PageInfo.EndCursor
	return page, nil
}

// AllMeasurements follows the cursor until the last page. onPage, if set, is called
// with the running total after each page.
func (c *Client) AllMeasurements(ctx context.Context, tokens TokenProvider, q MeasurementsQuery, onPage func(total int)) ([]Measurement, error) {
	var all []Measurement
	for i := 0; i < maxMeasurementPages; i++ {
		page, err := c.Measurements(ctx, tokens, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Measurements...)
		if onPage != nil {
			onPage(len(all))
		}
		if !page.HasNextPage {
			return all, nil
		}
		q.Cursor = page.EndCursor
	}
	log.Warn().Str("account", q.AccountNumber).Int("pages", maxMeasurementPages).Msg("Stopped paging measurements")
	return all, nil
}
