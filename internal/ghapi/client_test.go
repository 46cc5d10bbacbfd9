package ghapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGetJSON(t *testing.T) {
	var gotAccept, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprintln(w, `{"tag_name": "v1.0.0"}`)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "sometoken", RetryMax: 1})

	var out struct {
		TagName string `json:"tag_name"`
	}
	require.NoError(t, client.GetJSON(context.Background(), "/repos/o/r/releases/latest", &out))
	assert.Equal(t, "v1.0.0", out.TagName)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Equal(t, "Bearer sometoken", gotAuth)
}

func TestClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RetryMax: 1})

	_, err := client.Get(context.Background(), server.URL+"/missing", "")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestClientUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RetryMax: 1})

	_, err := client.Get(context.Background(), server.URL+"/forbidden", "")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.StatusCode)
}

func TestClientMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "not json")
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, RetryMax: 1})

	var out map[string]interface{}
	assert.Error(t, client.GetJSON(context.Background(), "/whatever", &out))
}
