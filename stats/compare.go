package stats

import (
	"fmt"
	"math"

	mstats "github.com/aclements/go-moremath/stats"
	"github.com/pkg/errors"

	"imgbench/model"
)

// Comparison sets two sources side by side on mean latency.
type Comparison struct {
	A, B Group

	// Faster is the source with the lower mean; empty when undecided.
	Faster model.SourceKind
	// Percent is how much lower the faster mean is, relative to the slower.
	Percent float64

	// p-values, NaN when the samples are too small or constant
	WelchP        float64
	MannWhitneyUP float64
}

// Compare measures how a's and b's latencies differ. Both sets must
// contain successful entries for a verdict.
func Compare(a, b []model.Measurement) Comparison {
	c := Comparison{
		A:             single(a),
		B:             single(b),
		WelchP:        math.NaN(),
		MannWhitneyUP: math.NaN(),
	}

	xa, xb := Latencies(a), Latencies(b)

	if len(xa) == 0 || len(xb) == 0 {
		return c
	}

	ma, mb := c.A.Aggregate.Mean, c.B.Aggregate.Mean

	switch {
	case ma < mb:
		c.Faster = c.A.Source
		c.Percent = (mb - ma) / mb * 100
	case mb < ma:
		c.Faster = c.B.Source
		c.Percent = (ma - mb) / ma * 100
	}

	if r, err := mstats.TwoSampleWelchTTest(mstats.Sample{Xs: xa}, mstats.Sample{Xs: xb}, mstats.LocationDiffers); err == nil {
		c.WelchP = r.P
	}

	if r, err := mstats.MannWhitneyUTest(xa, xb, mstats.LocationDiffers); err == nil {
		c.MannWhitneyUP = r.P
	}

	return c
}

// CompareSources splits ms by source and compares two of them.
func CompareSources(ms []model.Measurement, a, b model.SourceKind) (Comparison, error) {
	groups := GroupBySource(ms)
	ga, okA := Find(groups, a)
	gb, okB := Find(groups, b)

	if !okA || !okB {
		return Comparison{}, errors.Wrapf(model.ErrInvalidRequest, "need measurements for both %s and %s", a, b)
	}

	return Compare(ga.Measurements, gb.Measurements), nil
}

// Summary renders the comparison as one sentence.
func (c Comparison) Summary() string {
	if c.A.Aggregate.Successes == 0 || c.B.Aggregate.Successes == 0 {
		return "Not enough successful loads to compare sources."
	}

	if c.Faster == "" {
		return fmt.Sprintf("%s and %s performed the same.", c.A.Source, c.B.Source)
	}

	slower := c.A.Source

	if c.Faster == c.A.Source {
		slower = c.B.Source
	}

	return fmt.Sprintf("%s is ~%.0f%% faster than %s.", c.Faster, c.Percent, slower)
}

func single(ms []model.Measurement) Group {
	g := Group{Measurements: ms, Aggregate: Compute(ms)}

	if len(ms) > 0 {
		g.Source = ms[0].Source
	}

	return g
}
