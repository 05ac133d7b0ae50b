package refresh

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sched2ics/internal/convert"
	"sched2ics/internal/source"
)

const export = `{
  "A3": "Enrolled Sections",
  "B5": "CS101", "K5": "M-W-F | 9:00 AM - 9:50 AM | Hall 3", "M5": 45670, "N5": 45772
}`

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]error
	calls  int
}

func (f *fakeFetcher) FetchOne(_ context.Context, src source.Source) (source.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[src.ID]; err != nil {
		return source.Result{}, err
	}
	return source.Result{Source: src, Body: []byte(f.bodies[src.ID]), FileName: src.ID + ".json"}, nil
}

func newTestScheduler(t *testing.T, f Fetcher, sources []source.Source) (*Scheduler, *Store) {
	t.Helper()
	conv := convert.New(convert.Options{
		Now:    func() time.Time { return time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC) },
		Suffix: func() string { return "abc1234" },
	})
	store := NewStore()
	s, err := New("*/5 * * * *", f, conv, sources, store)
	require.NoError(t, err)
	return s, store
}

func TestRunOncePublishesCalendars(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"spring": export, "empty": `{}`}}
	s, store := newTestScheduler(t, f, []source.Source{
		{ID: "spring", Name: "Spring 2025"},
		{ID: "empty"},
	})

	require.NoError(t, s.RunOnce(context.Background()))

	cal, ok := store.Get("spring")
	require.True(t, ok)
	assert.Equal(t, "Spring 2025", cal.Name)
	assert.Equal(t, 1, cal.Events)
	assert.True(t, strings.HasPrefix(cal.Document, "BEGIN:VCALENDAR\r\n"))

	empty, ok := store.Get("empty")
	require.True(t, ok)
	assert.Equal(t, 0, empty.Events)

	ids := []string{}
	for _, c := range store.List() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"empty", "spring"}, ids)
}

func TestRunOnceKeepsPreviousCalendarOnFailure(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"spring": export}, fail: map[string]error{}}
	s, store := newTestScheduler(t, f, []source.Source{{ID: "spring"}})

	require.NoError(t, s.RunOnce(context.Background()))
	before, _ := store.Get("spring")

	f.fail["spring"] = errors.New("boom")
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source spring: boom")

	after, ok := store.Get("spring")
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestRunOnceReportsStructuralInput(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"bad": `[1,2]`}}
	s, store := newTestScheduler(t, f, []source.Source{{ID: "bad"}})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, convert.IsStructural(err))

	_, ok := store.Get("bad")
	assert.False(t, ok)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("whenever", &fakeFetcher{}, convert.New(convert.Options{}), nil, NewStore())
	assert.Error(t, err)
}

func TestStartRunsInitialPass(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"spring": export}}
	s, store := newTestScheduler(t, f, []source.Source{{ID: "spring"}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	_, ok := store.Get("spring")
	assert.True(t, ok)
	<-s.Stop().Done()
}
