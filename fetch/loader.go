package fetch

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"imgbench/cache"
	"imgbench/model"
	"imgbench/source"
)

var tracer = otel.Tracer("imgbench/fetch")

// LoaderConfig binds backends to origins.
type LoaderConfig struct {
	Origins map[model.SourceKind]source.ByteSource
	// Strategies to prepare fetchers for; all of them when empty.
	Strategies []Strategy
	// Cache is consulted only for requests without SkipCache.
	Cache cache.Cache
	// Wrap, when set, decorates every fetcher built at construction.
	Wrap func(Fetcher) Fetcher
}

type route struct {
	source   model.SourceKind
	strategy Strategy
}

// Loader turns a Request into bytes, running the matching Fetcher from
// start to cleanup.
type Loader struct {
	fetchers map[route]Fetcher
	cache    cache.Cache
}

func NewLoader(cfg LoaderConfig) (*Loader, error) {
	strategies := cfg.Strategies

	if len(strategies) == 0 {
		strategies = Strategies
	}

	l := &Loader{fetchers: make(map[route]Fetcher), cache: cfg.Cache}

	for kind, origin := range cfg.Origins {
		if _, err := model.ParseSourceKind(string(kind)); err != nil {
			return nil, err
		}

		for _, s := range strategies {
			f, err := NewFetcher(s, origin)

			if err != nil {
				return nil, errors.Wrapf(err, "%s origin", kind)
			}

			if cfg.Wrap != nil {
				f = cfg.Wrap(f)
			}

			l.fetchers[route{kind, s}] = f
		}
	}

	return l, nil
}

// Supports reports whether Load can route req.
func (l *Loader) Supports(req Request) bool {
	_, ok := l.fetchers[route{req.Source, req.Strategy}]
	return ok
}

// Load blocks until the item's bytes are available or the fetch fails.
// Cleanup runs on every path. Fetch errors are returned unchanged.
func (l *Loader) Load(ctx context.Context, req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f, ok := l.fetchers[route{req.Source, req.Strategy}]

	if !ok {
		return nil, errors.Wrapf(model.ErrInvalidRequest, "no %s fetcher for %s", req.Strategy, req.Source)
	}

	ctx, span := tracer.Start(ctx, "fetch.Load", trace.WithAttributes(
		attribute.String("imgbench.key", req.Key),
		attribute.String("imgbench.source", req.Source.String()),
		attribute.String("imgbench.strategy", req.Strategy.String()),
	))
	defer span.End()

	useCache := l.cache != nil && !req.SkipCache

	if useCache {
		if data, ok := l.cache.Get(ctx, req.cacheKey()); ok {
			span.SetAttributes(attribute.Bool("imgbench.cache_hit", true))
			return data, nil
		}
	}

	h := f.Start(ctx, req)
	defer h.Cleanup()

	res := h.Await(ctx)

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, model.Reason(res.Err))

		return nil, res.Err
	}

	data, err := drain(res.Payload)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, model.Reason(err))

		return nil, err
	}

	span.SetAttributes(attribute.Int("imgbench.bytes", len(data)))

	if useCache {
		_ = l.cache.Add(ctx, req.cacheKey(), data)
	}

	return data, nil
}

func drain(p Payload) ([]byte, error) {
	if b, ok := p.(Buffered); ok {
		return b.Bytes(), nil
	}

	data := make([]byte, 0, p.Len())
	buf := make([]byte, 32*1024)

	for {
		n, err := p.Read(buf)
		data = append(data, buf[:n]...)

		if err == io.EOF {
			return data, nil
		}

		if err != nil {
			if errors.Is(err, model.ErrIO) {
				return nil, err
			}

			return nil, errors.Wrapf(model.ErrIO, "read stream: %v", err)
		}
	}
}
