// Package fetch retrieves item bytes asynchronously under a chosen transport
// strategy. A Fetcher starts the work and hands back a Handle; the Loader
// drives one Handle from start to cleanup.
package fetch

import (
	"strings"

	"github.com/pkg/errors"

	"imgbench/model"
)

// Strategy selects how retrieved bytes are handed to the caller.
type Strategy string

const (
	// Stream wraps the retrieved slice in a sequential reader.
	Stream Strategy = "stream"
	// Buffer copies the retrieved slice into a new caller-owned buffer.
	Buffer Strategy = "buffer"
	// ZeroCopy exposes the retrieved slice as is.
	ZeroCopy Strategy = "zerocopy"
)

var Strategies = []Strategy{Stream, Buffer, ZeroCopy}

func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))

	if !st.Valid() {
		return "", errors.Wrapf(model.ErrInvalidRequest, "unknown transport strategy %q", s)
	}

	return st, nil
}

func (s Strategy) Valid() bool {
	switch s {
	case Stream, Buffer, ZeroCopy:
		return true
	}

	return false
}

func (s Strategy) String() string {
	return string(s)
}

// Request identifies one item to load. It is passed by value.
type Request struct {
	Key      string
	Source   model.SourceKind
	Strategy Strategy
	// SkipCache makes the Loader go to the origin even when a cache is set.
	SkipCache bool
}

// Validate rejects malformed requests with model.ErrInvalidRequest.
func (r Request) Validate() error {
	if err := model.CheckItem(r.Key); err != nil {
		return err
	}

	if _, err := model.ParseSourceKind(string(r.Source)); err != nil {
		return err
	}

	if !r.Strategy.Valid() {
		return errors.Wrapf(model.ErrInvalidRequest, "unknown transport strategy %q", string(r.Strategy))
	}

	return nil
}

func (r Request) cacheKey() string {
	return string(r.Source) + "/" + r.Key
}
