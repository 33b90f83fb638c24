// Package bench drives timed loads in batches and keeps their measurements.
package bench

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"imgbench/fetch"
	"imgbench/model"
	"imgbench/stats"
)

type Mode string

const (
	Sequential Mode = "sequential"
	Parallel   Mode = "parallel"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Sequential:
		return Sequential, nil
	case Parallel:
		return Parallel, nil
	}

	return "", errors.Wrapf(model.ErrInvalidRequest, "unknown execution mode %q", s)
}

// Run is the outcome of one batch.
type Run struct {
	ID           uuid.UUID
	Mode         Mode
	Started      time.Time
	Elapsed      time.Duration
	Measurements []model.Measurement
}

type Runner interface {
	// Run times every job and returns one measurement per issued job.
	// Invalid requests abort the batch. When ctx ends early the partial run is
	// returned together with a model.ErrCancelled error.
	Run(ctx context.Context, mode Mode, jobs []Job) (*Run, error)
}

type runner struct {
	config Config
	log    logrus.FieldLogger
}

func NewRunner(cfg Config) Runner {
	log := cfg.Logger

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &runner{config: cfg, log: log}
}

func (r *runner) Run(ctx context.Context, mode Mode, jobs []Job) (*Run, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	if r.config.Loader == nil {
		return nil, errors.Wrap(model.ErrInvalidRequest, "runner has no loader")
	}

	if err := r.validate(jobs); err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.New(), Mode: mode}
	log := r.log.WithFields(logrus.Fields{"run": run.ID.String(), "mode": mode, "jobs": len(jobs)})

	if r.config.Cache != nil {
		if err := r.config.Cache.Clear(ctx); err != nil {
			return nil, errors.Wrap(err, "clear cache before batch")
		}
	}

	batchesTotal.WithLabelValues(string(mode)).Inc()
	log.Debug("batch started")

	run.Started = time.Now()

	var err error

	if mode == Sequential {
		run.Measurements, err = r.sequential(ctx, jobs)
	} else {
		run.Measurements, err = r.parallel(ctx, jobs)
	}

	run.Elapsed = time.Since(run.Started)

	if errors.Is(err, model.ErrInvalidRequest) {
		log.WithError(err).Error("batch aborted")
		return nil, err
	}

	success := 0

	for _, m := range run.Measurements {
		if m.Succeeded {
			success++
		}
	}

	log.WithFields(logrus.Fields{
		"measured": len(run.Measurements),
		"success":  success,
		"elapsed":  run.Elapsed,
	}).Info("batch finished")

	return run, err
}

type supporter interface {
	Supports(fetch.Request) bool
}

func (r *runner) validate(jobs []Job) error {
	sup, _ := r.config.Loader.(supporter)

	for i, j := range jobs {
		if err := j.Request.Validate(); err != nil {
			return errors.Wrapf(err, "job %d", i)
		}

		if sup != nil && !sup.Supports(j.Request) {
			return errors.Wrapf(model.ErrInvalidRequest, "job %d: no %s route for %s", i, j.Request.Strategy, j.Request.Source)
		}
	}

	return nil
}

func (r *runner) sequential(ctx context.Context, jobs []Job) ([]model.Measurement, error) {
	out := make([]model.Measurement, 0, len(jobs))
	settle := r.config.settleDelay()

	for i, job := range jobs {
		if i > 0 && settle > 0 {
			select {
			case <-time.After(settle):
			case <-ctx.Done():
			}
		}

		if ctx.Err() != nil {
			return out, errors.Wrapf(model.ErrCancelled, "batch stopped after %d of %d jobs", len(out), len(jobs))
		}

		m, err := r.measure(ctx, job, time.Now())

		if err != nil {
			return out, err
		}

		out = append(out, m)
	}

	return out, nil
}

func (r *runner) parallel(ctx context.Context, jobs []Job) ([]model.Measurement, error) {
	var rec stats.Recorder

	g, gCtx := errgroup.WithContext(ctx)

	if r.config.Workers > 0 {
		g.SetLimit(r.config.Workers)
	}

	// every job is issued at once, so waiting for a free worker counts
	// towards its time
	issued := time.Now()

	for _, job := range jobs {
		g.Go(func() error {
			m, err := r.measure(gCtx, job, issued)

			if err != nil {
				return err
			}

			rec.Add(m)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rec.Snapshot(), err
	}

	if ctx.Err() != nil {
		return rec.Snapshot(), errors.Wrap(model.ErrCancelled, "batch cancelled")
	}

	return rec.Snapshot(), nil
}

// measure times one load from start. Only invalid requests come back as
// errors; every other failure is recorded on the measurement.
func (r *runner) measure(ctx context.Context, job Job, start time.Time) (model.Measurement, error) {
	req := job.Request

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)

		defer cancel()
	}

	data, err := r.config.Loader.Load(ctx, req)
	elapsed := time.Since(start)

	if err == nil && r.config.Validate != nil {
		err = r.config.Validate(data)
	}

	m := model.Measurement{
		Source:    req.Source,
		Item:      req.Key,
		Size:      uint64(len(data)),
		ElapsedMs: float64(elapsed) / float64(time.Millisecond),
		Iteration: job.Iteration,
		Succeeded: err == nil,
		Strategy:  req.Strategy.String(),
	}

	outcome := model.Reason(err)
	loadsTotal.WithLabelValues(string(req.Source), req.Strategy.String(), outcome).Inc()

	if err != nil {
		if errors.Is(err, model.ErrInvalidRequest) {
			return m, err
		}

		m.Err = err.Error()

		r.log.WithFields(logrus.Fields{
			"key":      req.Key,
			"source":   req.Source,
			"strategy": req.Strategy,
			"outcome":  outcome,
		}).WithError(err).Warn("load failed")

		return m, nil
	}

	loadDuration.WithLabelValues(string(req.Source), req.Strategy.String()).Observe(elapsed.Seconds())

	return m, nil
}
