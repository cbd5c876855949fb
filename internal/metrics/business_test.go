package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("boom")))
}

func TestBusinessMetrics(t *testing.T) {
	provider := newTestProvider(t)
	bm, err := NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "documents", "approve", StatusSuccess)
	bm.RecordOperation(ctx, "documents", "approve", StatusSuccess)
	bm.RecordOperation(ctx, "documents", "download", StatusError)
	bm.RecordOperation(ctx, "auth", "verify_login", StatusSuccess)
	bm.RecordDuration(ctx, "documents", "approve", 40*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "documents", "approve", 60*time.Millisecond, StatusSuccess)

	output := scrape(t, provider)
	assertMetricLine(t, output, "cedms_test_operations_total",
		`domain="documents".*operation="approve".*status="success"`, "2")
	assertMetricLine(t, output, "cedms_test_operations_total",
		`domain="documents".*operation="download".*status="error"`, "1")
	assertMetricLine(t, output, "cedms_test_operations_total",
		`domain="auth".*operation="verify_login".*status="success"`, "1")
	assertMetricLine(t, output, "cedms_test_operation_duration_seconds_count",
		`domain="documents".*operation="approve".*status="success"`, "2")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	assert.NotPanics(t, func() {
		bm.RecordOperation(context.Background(), "documents", "upload", StatusSuccess)
		bm.RecordDuration(context.Background(), "documents", "upload", time.Second, StatusError)
	})
}
