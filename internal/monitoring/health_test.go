package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthReport(t *testing.T, h *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthyAfterTick(t *testing.T) {
	h := NewHealthChecker()
	h.SetConnected(true)
	h.RecordTick(101.5)

	code, status := healthReport(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, 101.5, status.LastPrice)
}

func TestDegradedWhileDisconnected(t *testing.T) {
	h := NewHealthChecker()
	h.RecordTick(100)

	code, status := healthReport(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", status.Status)
}

func TestUnhealthyWithErrorsUntilCleanTick(t *testing.T) {
	h := NewHealthChecker()
	h.SetConnected(true)
	h.RecordError("history: timeout")

	code, status := healthReport(t, h)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "unhealthy", status.Status)
	assert.Len(t, status.Errors, 1)

	h.RecordTick(100)
	code, status = healthReport(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, status.Errors)
}

func TestErrorWindowKeepsMostRecentTen(t *testing.T) {
	h := NewHealthChecker()
	h.SetConnected(true)
	for i := 0; i < 15; i++ {
		h.RecordError("err")
	}
	_, status := healthReport(t, h)
	assert.Len(t, status.Errors, 10)
}
