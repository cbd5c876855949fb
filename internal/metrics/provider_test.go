package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scrape returns the exposition output of provider.
func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// assertMetricLine matches a sample by name, partial labels and value. The
// exporter adds scope labels, so labels are matched as a substring pattern.
func assertMetricLine(t *testing.T, output, metric, labels, value string) {
	t.Helper()
	assert.Regexp(t, metric+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	provider, err := NewProvider("cedms_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	})
	return provider
}

func TestProvider(t *testing.T) {
	t.Run("Success_Namespace", func(t *testing.T) {
		provider := newTestProvider(t)
		assert.Equal(t, "cedms_test", provider.Namespace())
		assert.NotNil(t, provider.MeterProvider())
	})

	t.Run("Success_EmptyRegistryServes", func(t *testing.T) {
		provider := newTestProvider(t)
		assert.NotPanics(t, func() { _ = scrape(t, provider) })
	})

	t.Run("Success_ServiceResource", func(t *testing.T) {
		provider := newTestProvider(t)
		counter, err := provider.MeterProvider().Meter("test").Int64Counter("probe_total")
		require.NoError(t, err)
		counter.Add(context.Background(), 1)

		assertMetricLine(t, scrape(t, provider), "target_info", `service_name="cedms_test"`, "1")
	})

	t.Run("Success_NilShutdown", func(t *testing.T) {
		var provider *Provider
		assert.NoError(t, provider.Shutdown(context.Background()))
		assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "cedms_operations_total", name("cedms", "operations_total"))
	assert.Equal(t, "operations_total", name("", "operations_total"))
}
