package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the JSON body every API response is wrapped in.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// APIClient drives an http.Handler in-process, optionally with a bearer token.
type APIClient struct {
	Handler http.Handler
	Token   string
	Headers map[string]string
}

// NewAPIClient creates a client without credentials.
func NewAPIClient(h http.Handler) *APIClient {
	return &APIClient{Handler: h}
}

// WithToken returns a copy of the client that sends the bearer token.
func (c *APIClient) WithToken(token string) *APIClient {
	cp := *c
	cp.Token = token
	return &cp
}

// Do sends a JSON request. A nil body sends no payload.
func (c *APIClient) Do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// Decode parses the response envelope.
func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// DataAs asserts the status and decodes the data field into T.
func DataAs[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()

	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	env := Decode(t, w)
	require.True(t, env.Success)

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// AssertError asserts the status and the error code of a failed response.
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "body: %s", w.Body.String())
	env := Decode(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
}
