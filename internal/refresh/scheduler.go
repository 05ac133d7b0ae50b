// Package refresh periodically converts remote exports and publishes the
// resulting calendars.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sched2ics/internal/convert"
	appLog "sched2ics/internal/log"
	"sched2ics/internal/source"
)

// Fetcher is the subset of source.Fetcher the scheduler needs.
type Fetcher interface {
	FetchOne(ctx context.Context, src source.Source) (source.Result, error)
}

// Scheduler runs one refresh pass per cron tick. Passes never overlap.
type Scheduler struct {
	cron    *cron.Cron
	fetcher Fetcher
	conv    *convert.Converter
	sources []source.Source
	store   *Store
	now     func() time.Time

	runMu sync.Mutex
}

// New validates schedule (standard five-field cron) and builds a scheduler.
func New(schedule string, f Fetcher, conv *convert.Converter, sources []source.Source, store *Store) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
	}
	s := &Scheduler{
		cron:    cron.New(),
		fetcher: f,
		conv:    conv,
		sources: sources,
		store:   store,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			appLog.Error("scheduled refresh had failures", err)
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs an initial pass and then starts the cron loop. The cron loop
// stops when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		appLog.Error("initial refresh had failures", err)
	}
	s.cron.Start()
	appLog.Info("refresh scheduler started", "sources", len(s.sources))

	go func() {
		<-ctx.Done()
		<-s.Stop().Done()
	}()
}

// Stop halts the cron loop. The returned context is done once a running
// pass finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce fetches and converts every source. A source that fails keeps its
// previously published calendar.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	var errs []error
	for _, src := range s.sources {
		if err := s.refreshOne(ctx, src); err != nil {
			appLog.Error("refresh failed", err, "id", src.ID)
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) refreshOne(ctx context.Context, src source.Source) error {
	res, err := s.fetcher.FetchOne(ctx, src)
	if err != nil {
		return err
	}

	conv, err := s.conv.ConvertBytes(res.FileName, res.Body)
	if err != nil {
		return err
	}

	s.store.Put(Calendar{
		ID:        src.ID,
		Name:      src.Name,
		Document:  conv.Document,
		Events:    len(conv.Events),
		FromCache: res.FromCache,
		UpdatedAt: s.now(),
	})
	appLog.Info("calendar published", "id", src.ID, "events", len(conv.Events), "from_cache", res.FromCache)
	return nil
}
