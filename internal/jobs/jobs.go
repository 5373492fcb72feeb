// Package jobs runs the periodic background work of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-membership/internal/config"
	"github.com/diewo77/go-membership/internal/metrics"
)

const GeocodeJobName = "geocode_pending"

// Geocoder is the part of the address service the geocode job needs.
type Geocoder interface {
	GeocodeAllNeeded(ctx context.Context, batchSize int, pause time.Duration) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
	// ctx is cancelled by Stop so a running batch ends early.
	ctx    context.Context
	cancel context.CancelFunc
}

// cronLogger feeds cron's own messages into logrus.
type cronLogger struct{ log logrus.FieldLogger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.WithFields(fields(kv)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.WithFields(fields(kv)).WithError(err).Error(msg)
}

func fields(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

// NewScheduler returns a stopped scheduler. A job still running when its
// next tick arrives is skipped rather than run twice.
func NewScheduler(log logrus.FieldLogger) *Scheduler {
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add schedules fn under name. Every run is logged and counted.
func (s *Scheduler) Add(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) run(name string, fn func(ctx context.Context) error) {
	start := time.Now()
	err := fn(s.ctx)
	metrics.RecordJobRun(name, err == nil)
	entry := s.log.WithFields(logrus.Fields{"job": name, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	entry.Info("job finished")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// GeocodePending returns the job that fills in missing coordinates.
func GeocodePending(g Geocoder, cfg config.JobsConfig, log logrus.FieldLogger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := g.GeocodeAllNeeded(ctx, cfg.GeocodeBatch, cfg.GeocodePause)
		log.WithField("geocoded", n).Debug("pending addresses geocoded")
		return err
	}
}

// RegisterGeocoding schedules GeocodePending when a schedule is configured.
func RegisterGeocoding(s *Scheduler, g Geocoder, cfg config.JobsConfig, log logrus.FieldLogger) error {
	if cfg.GeocodeSchedule == "" {
		return nil
	}
	return s.Add(cfg.GeocodeSchedule, GeocodeJobName, GeocodePending(g, cfg, log))
}
