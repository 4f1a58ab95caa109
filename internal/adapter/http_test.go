package adapter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/adapter"
	"github.com/modelmux/modelmux/internal/domain"
)

func TestHTTPAdapterSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a := adapter.NewHTTPAdapter(srv.Client())
	err := a.TestConnection(context.Background(), domain.KindAnthropic, domain.ProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
	})
	require.NoError(t, err)
}

func TestHTTPAdapterNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	a := adapter.NewHTTPAdapter(srv.Client())
	err := a.TestConnection(context.Background(), domain.KindOpenAI, domain.ProviderConfig{BaseURL: srv.URL})
	assert.ErrorContains(t, err, "unhealthy status: 503")
}

func TestHTTPAdapterUnreachable(t *testing.T) {
	t.Parallel()

	a := adapter.NewHTTPAdapter(nil)
	err := a.TestConnection(context.Background(), domain.KindOllama, domain.ProviderConfig{
		BaseURL:   "http://127.0.0.1:1",
		TimeoutMS: 200,
	})
	assert.Error(t, err)
}

func TestHTTPAdapterNoBaseURL(t *testing.T) {
	t.Parallel()

	a := adapter.NewHTTPAdapter(nil)
	err := a.TestConnection(context.Background(), domain.KindBedrock, domain.ProviderConfig{})
	assert.NoError(t, err)
}
