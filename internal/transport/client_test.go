package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseJSON = `{"id":"C1","debtor_id":"D1","auftrag_id":"A1","case_reference":"REF-1",
"original_amount":100,"fees_amount":10,"interest_amount":2.5,"paid_amount":20,
"currency":"EUR","status":"open","opened_at":"2025-01-01","created_at":"2025-01-01","updated_at":"2025-01-02"}`

func newTestClient(baseURL, token string) *Client {
	return New(Config{
		Endpoint: EndpointFunc(func() string { return baseURL }),
		Tokens:   TokenFunc(func() (string, error) { return token, nil }),
	}, nil)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildRequestWithoutEndpoint(t *testing.T) {
	c := newTestClient("", "tok")
	_, err := c.BuildRequest(context.Background(), http.MethodGet, "cases", nil, nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, KindConfiguration, KindOf(err))
}

func TestBuildRequestWithoutToken(t *testing.T) {
	for _, token := range []string{"", "   "} {
		c := newTestClient("https://api.example.com", token)
		_, err := c.BuildRequest(context.Background(), http.MethodGet, "cases", nil, nil)
		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, 0, authErr.StatusCode)
	}

	c := New(Config{
		Endpoint: EndpointFunc(func() string { return "https://api.example.com" }),
		Tokens:   TokenFunc(func() (string, error) { return "", errors.New("keyring locked") }),
	}, nil)
	_, err := c.BuildRequest(context.Background(), http.MethodGet, "cases", nil, nil)
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestBuildRequestInvalidURL(t *testing.T) {
	c := newTestClient("not a url", "tok")
	_, err := c.BuildRequest(context.Background(), http.MethodGet, "cases", nil, nil)
	assert.Equal(t, KindInvalidURL, KindOf(err))
}

func TestBuildRequestHeadersAndBody(t *testing.T) {
	c := newTestClient("https://api.example.com/v1", "secret-token")
	q := url.Values{"status": {"open"}}
	req, err := c.BuildRequest(context.Background(), http.MethodPut, "/cases/C1", q, map[string]string{"status": "paid"})
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1/cases/C1?status=open", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))

	data, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"paid"}`, string(data))

	get, err := c.BuildRequest(context.Background(), "", "cases", nil, map[string]string{"ignored": "x"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, get.Method)
	assert.Nil(t, get.Body)
}

func TestBuildRequestEncodingError(t *testing.T) {
	c := newTestClient("https://api.example.com", "tok")
	_, err := c.BuildRequest(context.Background(), http.MethodPost, "payments", nil, map[string]any{"bad": make(chan int)})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestTokenReadOnEveryRequest(t *testing.T) {
	token := "first-token"
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{
		Endpoint: EndpointFunc(func() string { return srv.URL }),
		Tokens:   TokenFunc(func() (string, error) { return token, nil }),
	}, nil)

	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "x", nil, nil, nil))
	token = "second-token"
	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "x", nil, nil, nil))
	assert.Equal(t, []string{"Bearer first-token", "Bearer second-token"}, seen)
}

func TestPerformUnauthorizedRegardlessOfBody(t *testing.T) {
	bodies := []string{"", `{"error":"token expired"}`, "plain text", `[1,2,3]`}
	for _, body := range bodies {
		srv := serve(t, http.StatusUnauthorized, body)
		c := newTestClient(srv.URL, "tok")
		var out model.Case
		err := c.Do(context.Background(), http.MethodGet, "cases/C1", nil, nil, Into(&out))
		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr, "body %q", body)
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	}
}

func TestPerformStatusErrorMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"envelope", http.StatusForbidden, `{"error":"not allowed"}`, "not allowed"},
		{"raw text", http.StatusInternalServerError, "database down\n", "database down"},
		{"empty", http.StatusNotFound, "", ""},
		{"envelope without error key", http.StatusBadRequest, `{"detail":"x"}`, `{"detail":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			c := newTestClient(srv.URL, "tok")
			err := c.Do(context.Background(), http.MethodGet, "cases", nil, nil, nil)
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.message, statusErr.Message)
		})
	}
}

func TestPerformNoContent(t *testing.T) {
	srv := serve(t, http.StatusNoContent, "")
	c := newTestClient(srv.URL, "tok")

	assert.NoError(t, c.Do(context.Background(), http.MethodDelete, "debtors/D1", nil, nil, nil))

	var out model.Case
	err := c.Do(context.Background(), http.MethodGet, "cases/C1", nil, nil, Into(&out))
	var decErr *DecodingError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, NoContent, decErr.Failure)
	assert.Contains(t, decErr.Error(), "received no content, expected data")
}

func TestPerformEmptySuccessBody(t *testing.T) {
	srv := serve(t, http.StatusOK, "  ")
	c := newTestClient(srv.URL, "tok")

	assert.NoError(t, c.Do(context.Background(), http.MethodPost, "x", nil, nil, nil))

	var out []model.Case
	err := c.Do(context.Background(), http.MethodGet, "cases", nil, nil, IntoList(&out))
	assert.Equal(t, KindDecoding, KindOf(err))
}

func TestPerformDecodesObject(t *testing.T) {
	srv := serve(t, http.StatusOK, caseJSON)
	c := newTestClient(srv.URL, "tok")

	var out model.Case
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "cases/C1", nil, nil, Into(&out)))
	assert.Equal(t, "C1", out.ID)
	assert.Equal(t, model.StatusOpen, out.Status)
	assert.InDelta(t, 92.5, out.OutstandingAmount(), 1e-9)

	m := c.Metrics()
	assert.Equal(t, int64(1), m.CallsSuccess)
	assert.False(t, m.LastActivity.IsZero())
}

func TestPerformTransportError(t *testing.T) {
	srv := serve(t, http.StatusOK, "{}")
	base := srv.URL
	srv.Close()

	c := newTestClient(base, "tok")
	err := c.Do(context.Background(), http.MethodGet, "cases", nil, nil, nil)
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.False(t, trErr.Timeout())
	assert.Equal(t, int64(1), c.Metrics().CallsError)
}

func TestPerformTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{
		Endpoint: EndpointFunc(func() string { return srv.URL }),
		Tokens:   TokenFunc(func() (string, error) { return "tok", nil }),
		Timeout:  50 * time.Millisecond,
	}, nil)
	err := c.Do(context.Background(), http.MethodGet, "cases", nil, nil, nil)
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.True(t, trErr.Timeout())
	assert.Contains(t, UserMessage(err), "did not answer in time")
}

func TestDefaultTimeout(t *testing.T) {
	c := newTestClient("https://api.example.com", "tok")
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "not allowed", UserMessage(&StatusError{StatusCode: 403, Message: "not allowed"}))
	assert.Contains(t, UserMessage(&StatusError{StatusCode: 404}), "404")
	assert.Contains(t, UserMessage(&UnsupportedOperationError{Operation: "case deletion", Hint: "archive instead"}), "archive instead")
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Equal(t, "", UserMessage(nil))

	wrapped := &model.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, KindStatus, KindOf(errors.Join(errors.New("ctx"), &StatusError{StatusCode: 500})))
}

func TestErrorMessageEnvelope(t *testing.T) {
	data, err := json.Marshal(map[string]string{"error": "Fall nicht gefunden"})
	require.NoError(t, err)
	assert.Equal(t, "Fall nicht gefunden", errorMessage(data))
	assert.Equal(t, "", errorMessage(nil))
}

func TestCallerHTTPClientIsNotModified(t *testing.T) {
	srv := serve(t, http.StatusOK, caseJSON)
	shared := srv.Client()
	shared.Timeout = 0

	c := New(Config{
		Endpoint:   EndpointFunc(func() string { return srv.URL }),
		Tokens:     TokenFunc(func() (string, error) { return "tok", nil }),
		HTTPClient: shared,
		Timeout:    2 * time.Second,
	}, nil)

	var out model.Case
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "cases/C1", nil, nil, Into(&out)))
	assert.Equal(t, "C1", out.ID)
	assert.Zero(t, shared.Timeout, "shared client keeps its own timeout")
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.Equal(t, shared.Transport, c.httpClient.Transport)
}
