package jellyfin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlarr/throttlarr/apierr"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		baseURL string
		token   string
		window  int
		wantErr string
	}{
		{
			name:    "valid config",
			baseURL: "http://localhost:8096",
			token:   "abc123",
			window:  5,
		},
		{
			name:    "missing URL",
			token:   "abc123",
			window:  5,
			wantErr: "URL is required",
		},
		{
			name:    "missing token",
			baseURL: "http://localhost:8096",
			window:  5,
			wantErr: "API token is required",
		},
		{
			name:    "zero window",
			baseURL: "http://localhost:8096",
			token:   "abc123",
			wantErr: "active window must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, tt.token, tt.window, logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestCountActiveSessions(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("counts array elements", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Sessions", r.URL.Path)
			assert.Equal(t, "30", r.URL.Query().Get("activeWithinSeconds"))
			assert.Equal(t, "MediaBrowser Token=abc123", r.Header.Get("Authorization"))
			w.Write([]byte(`[{"Id":"x"},{"Id":"y"}]`))
		}))
		defer server.Close()

		client, err := NewClient(server.URL, "abc123", 30, logger)
		require.NoError(t, err)

		count, err := client.CountActiveSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("empty array is zero", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client, err := NewClient(server.URL, "abc123", 5, logger)
		require.NoError(t, err)

		count, err := client.CountActiveSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("non-array bodies count as zero sessions", func(t *testing.T) {
		bodies := map[string]string{
			"object":         `{"Sessions":[{"Id":"x"}]}`,
			"null":           `null`,
			"number":         `42`,
			"string":         `"sessions"`,
			"malformed json": `{"broken`,
			"empty body":     ``,
		}

		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(body))
				}))
				defer server.Close()

				client, err := NewClient(server.URL, "abc123", 5, logger)
				require.NoError(t, err)

				count, err := client.CountActiveSessions(ctx)
				require.NoError(t, err, "lenient parse must never fail")
				assert.Equal(t, 0, count)
			})
		}
	})

	t.Run("bad status is transient", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusInternalServerError, http.StatusBadGateway} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			client, err := NewClient(server.URL, "abc123", 5, logger)
			require.NoError(t, err)

			_, err = client.CountActiveSessions(ctx)
			require.Error(t, err)
			assert.Equal(t, apierr.Transient, apierr.KindOf(err), "status %d", status)
			assert.False(t, apierr.IsAuthRejected(err), "media server auth errors must not trigger re-login")

			server.Close()
		}
	})

	t.Run("connection refused is transient", func(t *testing.T) {
		client, err := NewClient("http://127.0.0.1:1", "abc123", 5, logger,
			WithTimeout(time.Second))
		require.NoError(t, err)

		_, err = client.CountActiveSessions(ctx)
		require.Error(t, err)
		assert.Equal(t, apierr.Transient, apierr.KindOf(err))
	})
}

func TestTestConnection(t *testing.T) {
	logger := zerolog.Nop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "abc123", 5, logger)
	require.NoError(t, err)
	assert.NoError(t, client.TestConnection(context.Background()))
}
