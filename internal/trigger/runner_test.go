package trigger

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

type stubPusher struct{ calls atomic.Int32 }

func (s *stubPusher) Push(ctx context.Context, sub subscription.Subscriber, message []byte) (int, error) {
	s.calls.Add(1)
	return http.StatusCreated, nil
}

func scheduleServer(t *testing.T, doc schedule.Document, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		json.NewEncoder(w).Encode(doc)
	}))
}

func TestTick_FansOutForWindowedActivity(t *testing.T) {
	eval := testEvaluator(t)
	mem := store.NewMemory()
	pusher := &stubPusher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := notify.NewEngine(mem, pusher, 50, logger)

	sub := subscription.Subscriber{
		Endpoint: "https://push.example/a",
		Prefs:    subscription.Prefs{ThirtyMin: true, DailyBriefingHour: 8},
	}
	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	require.NoError(t, mem.Put(context.Background(), subscription.DeriveKey(sub.Endpoint), raw, 0))

	srv := scheduleServer(t, schedule.Document{Days: []schedule.Day{{
		Name:  "Friday",
		Slots: []schedule.Slot{{Activity: "Open Gym", Start: "3:00 PM", End: "5:00 PM", OpenGym: true}},
	}}}, nil)
	defer srv.Close()

	runner := NewRunner(eval, engine, schedule.NewClient(srv.URL, time.Minute), time.Minute, logger)
	runner.now = func() time.Time { return fridayAt(t, 14, 30) }

	results, err := runner.Tick(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Sent)
	assert.Equal(t, int32(1), pusher.calls.Load())

	// Retried invocation of the same logical moment: marker collision.
	results, err = runner.Tick(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, notify.Result{}, results[0])
	assert.Equal(t, int32(1), pusher.calls.Load())
}

func TestTick_BriefingFiresAtSevenBeforeOpening(t *testing.T) {
	eval := testEvaluator(t)
	mem := store.NewMemory()
	pusher := &stubPusher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := notify.NewEngine(mem, pusher, 50, logger)

	sub := subscription.Subscriber{
		Endpoint: "https://push.example/early",
		Prefs:    subscription.Prefs{DailyBriefing: true, DailyBriefingHour: 7},
	}
	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	require.NoError(t, mem.Put(context.Background(), subscription.DeriveKey(sub.Endpoint), raw, 0))

	srv := scheduleServer(t, schedule.Document{Days: []schedule.Day{{
		Name:  "Friday",
		Slots: []schedule.Slot{{Activity: "Drop-in Basketball", Start: "9:00 AM", End: "11:00 AM"}},
	}}}, nil)
	defer srv.Close()

	runner := NewRunner(eval, engine, schedule.NewClient(srv.URL, time.Minute), time.Minute, logger)
	runner.now = func() time.Time { return fridayAt(t, 7, 10) }

	results, err := runner.Tick(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, results, 1, "hour 7 is before opening but is a selectable briefing hour")
	assert.Equal(t, 1, results[0].Sent)
	assert.Equal(t, int32(1), pusher.calls.Load())
}

func TestTick_OutsideGymHoursFetchesNothing(t *testing.T) {
	eval := testEvaluator(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := notify.NewEngine(store.NewMemory(), &stubPusher{}, 50, logger)

	var hits atomic.Int32
	srv := scheduleServer(t, schedule.Document{}, &hits)
	defer srv.Close()

	runner := NewRunner(eval, engine, schedule.NewClient(srv.URL, time.Minute), time.Minute, logger)
	runner.now = func() time.Time { return fridayAt(t, 23, 0) }

	results, err := runner.Tick(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, hits.Load(), "schedule never fetched outside gym hours")
}
