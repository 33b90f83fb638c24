package bench

import (
	"github.com/pkg/errors"

	"imgbench/fetch"
	"imgbench/model"
)

// Job is one timed load.
type Job struct {
	Request   fetch.Request
	Iteration uint32
}

type PlanConfig struct {
	Items      []string
	Sources    []model.SourceKind
	Strategies []fetch.Strategy
	Iterations int
}

// Plan expands cfg into jobs ordered by iteration, then source, then
// strategy, then item. Every request bypasses the loader cache.
func Plan(cfg PlanConfig) ([]Job, error) {
	if len(cfg.Items) == 0 || len(cfg.Sources) == 0 || len(cfg.Strategies) == 0 {
		return nil, errors.Wrap(model.ErrInvalidRequest, "plan needs items, sources and strategies")
	}

	if cfg.Iterations < 1 {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "iterations must be positive, got %d", cfg.Iterations)
	}

	jobs := make([]Job, 0, cfg.Iterations*len(cfg.Sources)*len(cfg.Strategies)*len(cfg.Items))

	for it := 1; it <= cfg.Iterations; it++ {
		for _, src := range cfg.Sources {
			for _, st := range cfg.Strategies {
				for _, item := range cfg.Items {
					jobs = append(jobs, Job{
						Request:   fetch.Request{Key: item, Source: src, Strategy: st, SkipCache: true},
						Iteration: uint32(it),
					})
				}
			}
		}
	}

	return jobs, nil
}

// BySource splits jobs per source, keeping their order.
func BySource(jobs []Job) (map[model.SourceKind][]Job, []model.SourceKind) {
	out := make(map[model.SourceKind][]Job)
	var order []model.SourceKind

	for _, j := range jobs {
		if _, ok := out[j.Request.Source]; !ok {
			order = append(order, j.Request.Source)
		}

		out[j.Request.Source] = append(out[j.Request.Source], j)
	}

	return out, order
}
