package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/client"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, exp time.Time, issuer string) string {
	t.Helper()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kraken|account-user:1",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// staticTokens always hands out the same lease.
type staticTokens struct {
	lease *auth.Lease
	err   error
	calls int
}

func (s *staticTokens) GetToken(context.Context) (*auth.Lease, error) {
	s.calls++
	return s.lease, s.err
}

func leaseFor(t *testing.T, issuer string) *staticTokens {
	t.Helper()
	raw := signToken(t, time.Now().Add(time.Hour), issuer)
	claims, err := auth.DecodeToken(raw)
	require.NoError(t, err)
	return &staticTokens{lease: &auth.Lease{Token: raw, Claims: claims}}
}

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type capturedRequest struct {
	Header http.Header
	Body   client.Request
	Vars   map[string]any
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body struct {
		OperationName string         `json:"operationName"`
		Query         string         `json:"query"`
		Variables     map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return capturedRequest{
		Header: r.Header.Clone(),
		Body:   client.Request{OperationName: body.OperationName, Query: body.Query},
		Vars:   body.Variables,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(opts ...client.Option) *client.Client {
	base := []client.Option{client.WithBackoff(time.Millisecond), client.WithTimeout(5 * time.Second)}
	return client.New(append(base, opts...)...)
}
