package stats

import "imgbench/model"

// Group is one partition of a measurement set.
type Group struct {
	Source       model.SourceKind
	Item         string // empty when grouped by source only
	Measurements []model.Measurement
	Aggregate    Aggregate
}

// GroupBySource partitions ms by source in order of first occurrence.
func GroupBySource(ms []model.Measurement) []Group {
	return groupBy(ms, func(m model.Measurement) groupKey {
		return groupKey{source: m.Source}
	})
}

// GroupByItemAndSource partitions ms by (item, source) in order of first
// occurrence.
func GroupByItemAndSource(ms []model.Measurement) []Group {
	return groupBy(ms, func(m model.Measurement) groupKey {
		return groupKey{source: m.Source, item: m.Item}
	})
}

type groupKey struct {
	source model.SourceKind
	item   string
}

func groupBy(ms []model.Measurement, key func(model.Measurement) groupKey) []Group {
	index := make(map[groupKey]int)
	var groups []Group

	for _, m := range ms {
		k := key(m)
		i, ok := index[k]

		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Source: k.source, Item: k.item})
		}

		groups[i].Measurements = append(groups[i].Measurements, m)
	}

	for i := range groups {
		groups[i].Aggregate = Compute(groups[i].Measurements)
	}

	return groups
}

// Find returns the group for source, or false.
func Find(groups []Group, source model.SourceKind) (Group, bool) {
	for _, g := range groups {
		if g.Source == source {
			return g, true
		}
	}

	return Group{}, false
}
