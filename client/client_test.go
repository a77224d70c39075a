package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/habedi/krakn/auth"
	"github.com/habedi/krakn/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SendsHeadersAndDecodesData(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		captured = decodeRequest(t, r)
		writeJSON(w, map[string]any{"data": map[string]any{"answer": 42}})
	}))
	defer server.Close()

	tokens := leaseFor(t, server.URL)
	var out struct {
		Answer int `json:"answer"`
	}
	err := newTestClient(client.WithUserAgent("krakn-test")).Execute(context.Background(), "", tokens,
		client.Request{OperationName: "op", Query: "query op { answer }", Variables: map[string]any{"x": 1}}, &out)
	require.NoError(t, err)

	assert.Equal(t, 42, out.Answer)
	assert.Equal(t, "JWT "+tokens.lease.Token, captured.Header.Get("Authorization"))
	assert.Contains(t, captured.Header.Get("Content-Type"), "application/json")
	assert.Equal(t, "krakn-test", captured.Header.Get("User-Agent"))
	_, err = uuid.Parse(captured.Header.Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.Equal(t, "op", captured.Body.OperationName)
	assert.Equal(t, "query op { answer }", captured.Body.Query)
	assert.EqualValues(t, 1, captured.Vars["x"])
}

func TestExecute_WithoutTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{"data": map[string]any{}})
	}))
	defer server.Close()

	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{OperationName: "op"}, nil)
	assert.NoError(t, err)
}

func TestExecute_NoEndpoint(t *testing.T) {
	c := newTestClient()

	err := c.Execute(context.Background(), "", nil, client.Request{}, nil)
	assert.ErrorIs(t, err, client.ErrNoEndpoint)

	err = c.Execute(context.Background(), "", leaseFor(t, ""), client.Request{}, nil)
	assert.ErrorIs(t, err, client.ErrNoEndpoint)
}

func TestExecute_TokenErrorStopsRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	tokens := &staticTokens{err: auth.ErrLoginRequired}
	err := newTestClient().Execute(context.Background(), server.URL, tokens, client.Request{}, nil)
	assert.ErrorIs(t, err, auth.ErrLoginRequired)
	assert.Zero(t, hits.Load())
}

func TestExecute_GraphQLErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, map[string]any{
			"data": nil,
			"errors": []map[string]any{
				{
					"message": "Invalid data.",
					"path":    []any{"account", 0, "number"},
					"extensions": map[string]any{
						"errorType":        "VALIDATION",
						"errorCode":        "KT-CT-4321",
						"errorDescription": "Serializer validation error.",
					},
				},
				{
					"message":    "Unauthorized.",
					"path":       []any{"viewer"},
					"extensions": map[string]any{"errorType": "AUTHORIZATION", "errorCode": "KT-CT-1111", "errorDescription": "Unauthorized."},
				},
			},
		})
	}))
	defer server.Close()

	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{OperationName: "op"}, nil)
	require.Error(t, err)

	var gqlErrs client.GraphQLErrors
	require.True(t, errors.As(err, &gqlErrs))
	assert.Len(t, gqlErrs, 2)
	assert.Equal(t,
		"VALIDATION (KT-CT-4321): account.0.number Invalid data. (Serializer validation error.)\n"+
			"AUTHORIZATION (KT-CT-1111): viewer Unauthorized. (Unauthorized.)",
		err.Error())
	assert.EqualValues(t, 1, hits.Load())
}

func TestExecute_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"data": map[string]any{"ok": true}})
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.EqualValues(t, 2, hits.Load())
}

func TestExecute_GivesUpAfterConfiguredAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	err := newTestClient(client.WithRetries(3)).Execute(context.Background(), server.URL, nil, client.Request{}, nil)
	var tErr *client.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusServiceUnavailable, tErr.StatusCode)
	assert.Contains(t, tErr.Error(), "maintenance")
	assert.True(t, tErr.Temporary())
	assert.EqualValues(t, 3, hits.Load())
}

func TestExecute_ClientErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{}, nil)
	var tErr *client.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusBadRequest, tErr.StatusCode)
	assert.False(t, tErr.Temporary())
	assert.EqualValues(t, 1, hits.Load())
}

func TestExecute_GraphQLErrorsWithClientErrorStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Invalid data.","path":["obtainKrakenToken"],` +
			`"extensions":{"errorType":"VALIDATION","errorCode":"KT-CT-1138","errorDescription":"Authentication failed."}}]}`))
	}))
	defer server.Close()

	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{OperationName: "obtainKrakenToken"}, nil)
	var gqlErrs client.GraphQLErrors
	require.ErrorAs(t, err, &gqlErrs)
	assert.Equal(t, "VALIDATION (KT-CT-1138): obtainKrakenToken Invalid data. (Authentication failed.)", err.Error())
	assert.EqualValues(t, 1, hits.Load())
}

func TestExecute_EmptyErrorsListFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"a":1},"errors":[]}`))
	}))
	defer server.Close()

	var out map[string]int
	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{}, &out)
	var gqlErrs client.GraphQLErrors
	require.ErrorAs(t, err, &gqlErrs)
	assert.Empty(t, gqlErrs)
	assert.NotEmpty(t, err.Error())
	assert.Nil(t, out)
}

func TestExecute_NullErrorsIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"a":1},"errors":null}`))
	}))
	defer server.Close()

	var out map[string]int
	require.NoError(t, newTestClient().Execute(context.Background(), server.URL, nil, client.Request{}, &out))
	assert.Equal(t, 1, out["a"])
}

func TestExecute_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	err := newTestClient().Execute(context.Background(), server.URL, nil, client.Request{}, nil)
	var tErr *client.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, http.StatusOK, tErr.StatusCode)
	assert.Error(t, tErr.Err)
}

func TestExecute_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := newTestClient(client.WithRetries(1)).Execute(context.Background(), url, nil, client.Request{}, nil)
	var tErr *client.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Zero(t, tErr.StatusCode)
}

func TestExecute_CompletesLeaseOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{}})
	}))
	defer server.Close()

	storage := &memStorage{data: map[string]string{}}
	svc := auth.NewService(storage, newTestClient())

	_, err := svc.GetToken(context.Background())
	require.ErrorIs(t, err, auth.ErrLoginRequired)
	require.Equal(t, auth.StateFailed, svc.Status().State)

	storage.data[auth.KeyAuthToken] = signToken(t, time.Now().Add(time.Hour), server.URL)
	require.NoError(t, newTestClient().Execute(context.Background(), "", svc, client.Request{}, nil))
	assert.Equal(t, auth.StateReady, svc.Status().State)
}
