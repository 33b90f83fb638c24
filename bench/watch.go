package bench

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"imgbench/cache"
	"imgbench/jsonmodel"
	"imgbench/model"
	"imgbench/stats"
)

const pageSize = 20

// WatchConfig sets up repeated benchmarking of a fixed plan.
type WatchConfig struct {
	Runner     Runner
	Mode       Mode
	Jobs       []Job
	// Cache is shared by every source and cleared once per round, when no
	// batch is running. The Runner must not clear it itself.
	Cache      cache.Cache
	Renderer   func(latest map[model.SourceKind]*Run)
	TickPeriod time.Duration
	Logger     logrus.FieldLogger
}

// Service reruns the plan in rounds: each round starts one batch per source
// and the next round waits until all of them finished. It keeps the latest
// run of each source.
type Service interface {
	StartWatching(context.Context) error
	Latest() map[model.SourceKind]*Run
	GetRunForSource(source string, page string) *jsonmodel.RunResponse
}

type service struct {
	config      WatchConfig
	jobs        map[model.SourceKind][]Job
	sources     []model.SourceKind
	log         logrus.FieldLogger
	mu          sync.RWMutex
	latest      map[model.SourceKind]*Run
	renderChan  chan struct{}
	tickerChans map[model.SourceKind]chan struct{}
	running     atomic.Int32
	wg          *sync.WaitGroup
}

func NewService(cfg WatchConfig) Service {
	jobs, sources := BySource(cfg.Jobs)
	log := cfg.Logger

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &service{
		config:      cfg,
		jobs:        jobs,
		sources:     sources,
		log:         log,
		latest:      make(map[model.SourceKind]*Run),
		renderChan:  make(chan struct{}, 1),
		tickerChans: make(map[model.SourceKind]chan struct{}),
		wg:          &sync.WaitGroup{},
	}
}

func (srv *service) StartWatching(ctx context.Context) error {
	if len(srv.sources) == 0 {
		return errors.Wrap(model.ErrInvalidRequest, "nothing to watch")
	}

	if srv.config.TickPeriod <= 0 {
		return errors.Wrapf(model.ErrInvalidRequest, "tick period must be positive, got %s", srv.config.TickPeriod)
	}

	// watch each source
	for _, src := range srv.sources {
		tickChan := make(chan struct{}, 1)
		srv.tickerChans[src] = tickChan
		srv.wg.Add(1)

		go srv.watchSource(ctx, src, tickChan)
	}

	srv.startRound(ctx)

	ticker := time.NewTicker(srv.config.TickPeriod)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			srv.startRound(ctx)
		case <-srv.renderChan:
			srv.render()
		case <-ctx.Done():
			break loop
		}
	}

	srv.wg.Wait()
	srv.render()

	return nil
}

// startRound clears the shared cache and wakes every source, unless the
// previous round is still running.
func (srv *service) startRound(ctx context.Context) {
	if n := srv.running.Load(); n > 0 {
		srv.log.WithField("running", n).Debug("previous round still running, tick skipped")
		return
	}

	if srv.config.Cache != nil {
		if err := srv.config.Cache.Clear(ctx); err != nil {
			srv.log.WithError(err).Warn("clear cache before round")
			return
		}
	}

	srv.running.Store(int32(len(srv.tickerChans)))

	for _, ch := range srv.tickerChans {
		select {
		case ch <- struct{}{}:
		default:
			srv.running.Add(-1)
		}
	}
}

func (srv *service) render() {
	if srv.config.Renderer != nil {
		srv.config.Renderer(srv.Latest())
	}
}

func (srv *service) Latest() map[model.SourceKind]*Run {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	out := make(map[model.SourceKind]*Run, len(srv.latest))

	for k, v := range srv.latest {
		out[k] = v
	}

	return out
}

func (srv *service) GetRunForSource(source string, pageStr string) *jsonmodel.RunResponse {
	kind, err := model.ParseSourceKind(source)

	if err != nil {
		return nil
	}

	srv.mu.RLock()
	run, ok := srv.latest[kind]
	srv.mu.RUnlock()

	if !ok {
		return nil
	}

	page := 1

	if pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	all := run.Measurements
	totalItems := len(all)
	totalPages := (totalItems + pageSize - 1) / pageSize

	// checked before multiplying so large pages cannot overflow
	start, end := totalItems, totalItems

	if page <= totalPages {
		start = (page - 1) * pageSize
		end = min(start+pageSize, totalItems)
	}

	agg := stats.Compute(all)

	res := &jsonmodel.RunResponse{
		RunID:   run.ID.String(),
		Mode:    string(run.Mode),
		Source:  string(kind),
		Started: run.Started,
		Stats: jsonmodel.StatsResponse{
			Count:       agg.Count,
			Mean:        agg.Mean,
			Median:      agg.Median,
			Min:         agg.Min,
			Max:         agg.Max,
			StdDev:      agg.StdDev,
			SuccessRate: agg.SuccessRate,
		},
		Pagination: jsonmodel.Pagination{
			Page:       page,
			TotalPages: totalPages,
			Items:      end - start,
			TotalItems: totalItems,
		},
		Measurements: make([]jsonmodel.MeasurementResponse, 0, end-start),
	}

	for _, m := range all[start:end] {
		res.Measurements = append(res.Measurements, jsonmodel.MeasurementResponse{
			Item:       m.Item,
			Strategy:   m.Strategy,
			Size:       m.Size,
			Iteration:  m.Iteration,
			OK:         m.Succeeded,
			DurationMs: m.ElapsedMs,
			Error:      m.Err,
		})
	}

	return res
}

func (srv *service) watchSource(ctx context.Context, src model.SourceKind, tickChan <-chan struct{}) {
	defer srv.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tickChan:
			srv.runBatch(ctx, src)
			srv.running.Add(-1)
		}
	}
}

func (srv *service) runBatch(ctx context.Context, src model.SourceKind) {
	run, err := srv.config.Runner.Run(ctx, srv.config.Mode, srv.jobs[src])

	if err != nil {
		srv.log.WithField("source", src).WithError(err).Warn("watch batch incomplete")
	}

	// batches cut short by shutdown are not kept
	if run == nil || len(run.Measurements) == 0 || ctx.Err() != nil {
		return
	}

	srv.mu.Lock()
	srv.latest[src] = run
	srv.mu.Unlock()

	select {
	case srv.renderChan <- struct{}{}:
	default:
	}
}
