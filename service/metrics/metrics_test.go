package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubmission(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSubmission("transfer", nil)
	m.RecordSubmission("transfer", nil)
	m.RecordSubmission("drain", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("transfer", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("drain", "error")))
}

func TestRecordDrainRejected(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDrainRejected("insufficient_funds")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drainsRejected.WithLabelValues("insufficient_funds")))
}

func TestRecordRPCCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRPCCall("getBalance", "success", "devnet", 0.2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solanaRPCCallsTotal.WithLabelValues("getBalance", "success", "devnet")))

	count, err := testutil.GatherAndCount(reg, "solana_rpc_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordSubmission("airdrop", nil)

	require.NoError(t, Push(context.Background(), srv.URL, "solprereq", reg))
	assert.Equal(t, "/metrics/job/solprereq", gotPath)
}

func TestPush_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	NewMetrics(reg).RecordSubmission("airdrop", nil)

	err := Push(context.Background(), srv.URL, "solprereq", reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push metrics")
}
