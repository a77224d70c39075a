package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObtainToken(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = decodeRequest(t, r)
		writeJSON(w, map[string]any{"data": map[string]any{
			"obtainKrakenToken": map[string]any{
				"token":            "new-token",
				"payload":          map[string]any{"sub": "x"},
				"refreshToken":     "refresh",
				"refreshExpiresIn": 1900000000,
			},
		}})
	}))
	defer server.Close()

	tok, err := newTestClient().ObtainToken(context.Background(), server.URL, auth.Credentials{APIKey: "sk_test"})
	require.NoError(t, err)
	assert.Equal(t, &auth.ObtainedToken{Token: "new-token", RefreshToken: "refresh", RefreshExpiresIn: 1900000000}, tok)

	assert.Equal(t, "obtainKrakenToken", captured.Body.OperationName)
	assert.Contains(t, captured.Body.Query, "obtainKrakenToken(input: $input)")
	assert.Empty(t, captured.Header.Get("Authorization"))
	assert.Equal(t, map[string]any{"APIKey": "sk_test"}, captured.Vars["input"])
}

func TestObtainToken_EmailPasswordInput(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = decodeRequest(t, r)
		writeJSON(w, map[string]any{"data": map[string]any{"obtainKrakenToken": map[string]any{"token": "t"}}})
	}))
	defer server.Close()

	_, err := newTestClient().ObtainToken(context.Background(), server.URL, auth.Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "a@b.c", "password": "pw"}, captured.Vars["input"])
}

func TestObtainToken_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"obtainKrakenToken": nil}})
	}))
	defer server.Close()

	_, err := newTestClient().ObtainToken(context.Background(), server.URL, auth.Credentials{APIKey: "k"})
	assert.Error(t, err)
}

func TestViewerAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := decodeRequest(t, r)
		assert.Equal(t, "getViewerAccounts", captured.Body.OperationName)
		writeJSON(w, map[string]any{"data": map[string]any{"viewer": map[string]any{
			"preferredName": "Ada",
			"email":         "ada@example.com",
			"accounts": []map[string]any{{
				"number":      "A-1234ABCD",
				"status":      "ACTIVE",
				"accountType": "DOMESTIC",
				"balance":     -12345,
				"address":     map[string]any{"streetAddress": "1 High St", "locality": "Town", "postalCode": "AB1 2CD"},
				"properties": []map[string]any{{
					"address":                "1 High St",
					"occupancyPeriods":       []map[string]any{{"effectiveFrom": "2020-01-01T00:00:00+00:00", "effectiveTo": nil}},
					"electricityMeterPoints": []map[string]any{{"id": "e1"}},
					"gasMeterPoints":         []map[string]any{{"id": "g1"}},
				}},
			}},
		}}})
	}))
	defer server.Close()

	viewer, err := newTestClient().ViewerAccounts(context.Background(), leaseFor(t, server.URL))
	require.NoError(t, err)
	assert.Equal(t, "Ada", viewer.PreferredName)
	require.Len(t, viewer.Accounts, 1)
	acct := viewer.Accounts[0]
	assert.Equal(t, int64(-12345), acct.Balance)
	assert.Equal(t, "1 High St, Town, AB1 2CD", acct.Address.String())
	require.Len(t, acct.Properties, 1)
	assert.Nil(t, acct.Properties[0].OccupancyPeriods[0].EffectiveTo)
	assert.Equal(t, "g1", acct.Properties[0].GasMeterPoints[0].ID)
}

func measurementsResponse(values []string, hasNext bool, cursor string) map[string]any {
	edges := make([]map[string]any, 0, len(values))
	for i, v := range values {
		edges = append(edges, map[string]any{"node": map[string]any{
			"value":   v,
			"startAt": time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"metaData": map[string]any{
				"statistics":     []map[string]any{{"costInclTax": map[string]any{"estimatedAmount": "12.5"}}},
				"utilityFilters": map[string]any{"__typename": client.ElectricityFilters},
			},
		}})
	}
	return map[string]any{"data": map[string]any{"account": map[string]any{"properties": []map[string]any{{
		"measurements": map[string]any{
			"edges":    edges,
			"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
		},
	}}}}}
}

func TestAllMeasurements_FollowsCursor(t *testing.T) {
	var mu sync.Mutex
	var cursors []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := decodeRequest(t, r)
		mu.Lock()
		cursors = append(cursors, captured.Vars["cursor"])
		mu.Unlock()
		assert.Equal(t, "A-1234ABCD", captured.Vars["accountNumber"])
		if captured.Vars["cursor"] == nil {
			writeJSON(w, measurementsResponse([]string{"0.5", "1.25"}, true, "c1"))
			return
		}
		writeJSON(w, measurementsResponse([]string{"2"}, false, "c2"))
	}))
	defer server.Close()

	var totals []int
	q := client.MeasurementsQuery{
		AccountNumber:  "A-1234ABCD",
		First:          2,
		UtilityFilters: []client.UtilityFilter{{ElectricityFilters: &client.ElectricityFilter{ReadingFrequencyType: "RAW_INTERVAL"}}},
	}
	all, err := newTestClient().AllMeasurements(context.Background(), leaseFor(t, server.URL), q, func(n int) { totals = append(totals, n) })
	require.NoError(t, err)

	require.Len(t, all, 3)
	assert.Equal(t, 2.0, all[2].Usage())
	assert.Equal(t, []float64{12.5}, all[0].Charges())
	assert.Equal(t, client.ElectricityFilters, all[0].UtilityType())
	assert.Equal(t, []int{2, 3}, totals)
	assert.Equal(t, []any{nil, "c1"}, cursors)
}

func TestMeasurements_UnknownAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"account": nil}})
	}))
	defer server.Close()

	_, err := newTestClient().Measurements(context.Background(), leaseFor(t, server.URL), client.MeasurementsQuery{AccountNumber: "A-00000000", First: 10})
	assert.ErrorContains(t, err, "A-00000000")
}

func TestMeasurements_NoProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"account": map[string]any{"properties": []any{}}}})
	}))
	defer server.Close()

	page, err := newTestClient().Measurements(context.Background(), leaseFor(t, server.URL), client.MeasurementsQuery{AccountNumber: "A-00000000", First: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Measurements)
	assert.False(t, page.HasNextPage)
}
