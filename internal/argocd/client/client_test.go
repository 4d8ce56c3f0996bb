package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyamagu-2021/argocd-exporter/internal/argocd"
	"github.com/toyamagu-2021/argocd-exporter/internal/config"
	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
)

const appsBody = `{
	"items": [
		{
			"metadata": {"name": "demo", "namespace": "ns1"},
			"spec": {
				"project": "default",
				"destination": {"server": "https://kubernetes.default.svc", "namespace": "default"}
			},
			"status": {
				"health": {"status": "Healthy"},
				"sync": {"status": "Synced"}
			}
		},
		{
			"metadata": {"name": "partial"},
			"spec": {},
			"status": {}
		}
	]
}`

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}

		switch r.URL.Path {
		case "/api/v1/applications":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(appsBody))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_ListApplications(t *testing.T) {
	upstream := newTestServer(t, "test-token")

	c := New(config.ServerConfig{URL: upstream.URL, Token: "test-token"})

	apps, err := c.ListApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)

	assert.Equal(t, argocd.ApplicationStatus{
		Server:    upstream.URL,
		Name:      "demo",
		Project:   "default",
		Namespace: "ns1",
		Cluster:   "https://kubernetes.default.svc",
		Health:    "Healthy",
		Sync:      "Synced",
	}, apps[0])

	// Missing fields default rather than failing the call
	assert.Equal(t, argocd.ApplicationStatus{
		Server:    upstream.URL,
		Name:      "partial",
		Project:   "default",
		Namespace: "unknown",
		Cluster:   "unknown",
		Health:    "Unknown",
		Sync:      "Unknown",
	}, apps[1])
}

func TestClient_ListApplications_EmptyList(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": []}`))
	}))
	defer upstream.Close()

	c := New(config.ServerConfig{URL: upstream.URL, Token: "t"})

	apps, err := c.ListApplications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestClient_ListApplications_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsClientError(err))
				assert.Contains(t, err.Error(), "status code: 401")
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsClientError(err))
				assert.Contains(t, err.Error(), "status code: 500")
			},
		},
		{
			name: "unparseable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsClientError(err))
				assert.Contains(t, err.Error(), "unmarshal")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			c := New(config.ServerConfig{URL: upstream.URL, Token: "t"})

			apps, err := c.ListApplications(context.Background())
			require.Error(t, err)
			assert.Nil(t, apps)
			tt.check(t, err)

			// Every error carries the server identity
			details := errors.GetErrorDetails(err)
			require.NotNil(t, details)
			assert.Equal(t, upstream.URL, details["server"])
		})
	}
}

func TestClient_ListApplications_Timeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"items": []}`))
	}))
	defer upstream.Close()

	c := New(config.ServerConfig{URL: upstream.URL, Token: "t"}, WithTimeout(20*time.Millisecond))

	_, err := c.ListApplications(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTimeoutError(err))
}

func TestClient_ListApplications_ConnectionRefused(t *testing.T) {
	// Grab a port nothing is listening on
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	c := New(config.ServerConfig{URL: url, Token: "t"})

	_, err := c.ListApplications(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsClientError(err))
}

func TestNew_URLNormalization(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantBaseURL string
	}{
		{
			name:        "https URL kept",
			url:         "https://argocd.example.com",
			wantBaseURL: "https://argocd.example.com/api/v1",
		},
		{
			name:        "trailing slash trimmed",
			url:         "https://argocd.example.com/",
			wantBaseURL: "https://argocd.example.com/api/v1",
		},
		{
			name:        "scheme-less address gets https",
			url:         "argocd.example.com",
			wantBaseURL: "https://argocd.example.com/api/v1",
		},
		{
			name:        "http URL kept",
			url:         "http://argocd.local:8080",
			wantBaseURL: "http://argocd.local:8080/api/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(config.ServerConfig{URL: tt.url, Token: "t"})
			assert.Equal(t, tt.wantBaseURL, c.baseURL)
			// The label identity stays exactly as configured
			assert.Equal(t, tt.url, c.Server())
		})
	}
}
