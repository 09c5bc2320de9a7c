package connectivity

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidiaz1251/apostolV2/internal/logging"
	"github.com/davidiaz1251/apostolV2/internal/metrics"
)

func next(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no status received")
		return false
	}
}

func TestMonitorStartsOffline(t *testing.T) {
	m := NewMonitor(nil, 0, nil, logging.NullLogger())

	assert.False(t, m.IsConnected())
}

func TestMonitorFailedFirstProbeStaysOffline(t *testing.T) {
	m := NewMonitor(ProberFunc(func(context.Context) error {
		return errors.New("dns failure")
	}), time.Hour, nil, logging.NullLogger())

	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.IsConnected())
}

func TestMonitorEmitsInitialAndTransitions(t *testing.T) {
	m := NewMonitor(nil, 0, metrics.New(), logging.NullLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := m.Subscribe(ctx)
	assert.False(t, next(t, ch), "initial status")

	m.Report(true)
	assert.True(t, next(t, ch))

	m.Report(true) // duplicate, no emission
	m.Report(false)
	assert.False(t, next(t, ch))
	assert.False(t, m.IsConnected())
}

func TestMonitorRunProbesPeriodically(t *testing.T) {
	var online atomic.Bool
	online.Store(true)
	var calls atomic.Int32

	m := NewMonitor(ProberFunc(func(context.Context) error {
		calls.Add(1)
		if online.Load() {
			return nil
		}
		return errors.New("unreachable")
	}), 10*time.Millisecond, nil, logging.NullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.Eventually(t, m.IsConnected, time.Second, 5*time.Millisecond)

	online.Store(false)
	require.Eventually(t, func() bool { return !m.IsConnected() }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestHTTPProber(t *testing.T) {
	defer gock.Off()

	p := NewHTTPProber("https://probe.example.com/", time.Second)
	gock.InterceptClient(p.Client())

	gock.New("https://probe.example.com").Head("/").Reply(http.StatusServiceUnavailable)
	assert.NoError(t, p.Probe(context.Background()), "any HTTP answer means reachable")

	gock.New("https://probe.example.com").Head("/").ReplyError(errors.New("connection refused"))
	assert.Error(t, p.Probe(context.Background()))

	assert.True(t, gock.IsDone())
}
