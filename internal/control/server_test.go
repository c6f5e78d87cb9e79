package control

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

type fakeBot struct {
	position types.Position
	decision *types.Decision
}

func (f *fakeBot) Market() string                 { return "BTC-USD" }
func (f *fakeBot) Granularity() types.Granularity { return types.GranularityFifteenMinutes }
func (f *fakeBot) Position() types.Position       { return f.position }
func (f *fakeBot) LastDecision() (types.Decision, bool) {
	if f.decision == nil {
		return types.Decision{}, false
	}
	return *f.decision, true
}

type fakeStopper struct {
	stopped bool
}

func (f *fakeStopper) Stop() { f.stopped = true }

func TestStatusEndpoint(t *testing.T) {
	bot := &fakeBot{
		position: types.Position{
			Market:     "BTC-USD",
			State:      types.PositionHolding,
			EntryPrice: 42000,
			EntrySize:  0.01,
		},
		decision: &types.Decision{
			Tick:      7,
			Timestamp: time.Now(),
			Market:    "BTC-USD",
			Action:    types.ActionWait,
			Reason:    "holding: no exit signal",
		},
	}
	srv := NewServer(bot, &fakeStopper{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "BTC-USD", resp.Market)
	assert.Equal(t, "15m", resp.Granularity)
	assert.Equal(t, types.PositionHolding, resp.Position.State)
	require.NotNil(t, resp.LastDecision)
	assert.Equal(t, types.ActionWait, resp.LastDecision.Action)
	assert.NotEmpty(t, resp.Uptime)
}

func TestStatusOmitsDecisionBeforeFirstTick(t *testing.T) {
	srv := NewServer(&fakeBot{position: types.Position{State: types.PositionFlat}}, &fakeStopper{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.LastDecision)
}

func TestStopEndpoint(t *testing.T) {
	stopper := &fakeStopper{}
	srv := NewServer(&fakeBot{}, stopper, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stop", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, stopper.stopped)
}

func TestStopRejectsGet(t *testing.T) {
	stopper := &fakeStopper{}
	srv := NewServer(&fakeBot{}, stopper, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stop", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, stopper.stopped)
}

func TestStatusRejectsPost(t *testing.T) {
	srv := NewServer(&fakeBot{}, &fakeStopper{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
