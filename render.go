package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"imgbench/bench"
	"imgbench/model"
	"imgbench/stats"
)

var statsHeader = []string{"Loads", "OK %", "Mean ms", "Median ms", "Min ms", "Max ms", "StdDev ms", "Size"}

// renderReport prints per-source and per-item tables followed by the verdict.
func renderReport(w io.Writer, ms []model.Measurement) {
	if len(ms) == 0 {
		fmt.Fprintln(w, "No measurements.")
		return
	}

	bySource := newTable(w, append([]string{"Source"}, statsHeader...))

	for _, g := range stats.GroupBySource(ms) {
		bySource.Append(append([]string{string(g.Source)}, statsRow(g)...))
	}

	bySource.Render()
	fmt.Fprintln(w)

	byItem := newTable(w, append([]string{"Item", "Source"}, statsHeader...))

	for _, g := range stats.GroupByItemAndSource(ms) {
		byItem.Append(append([]string{g.Item, string(g.Source)}, statsRow(g)...))
	}

	byItem.Render()

	if cmp, err := stats.CompareSources(ms, model.File, model.Blob); err == nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, cmp.Summary())

		if p := finite(cmp.WelchP); p != nil {
			fmt.Fprintf(w, "Welch t-test p=%.4f, Mann-Whitney U p=%s\n", *p, formatP(cmp.MannWhitneyUP))
		}
	}
}

// renderLatest redraws the watch view with one row per source.
func renderLatest(w io.Writer, latest map[model.SourceKind]*bench.Run) {
	sources := make([]string, 0, len(latest))

	for src := range latest {
		sources = append(sources, string(src))
	}

	sort.Strings(sources)

	fmt.Fprint(w, "\033[2J\033[H") // clear console

	table := newTable(w, append([]string{"Source", "Run", "Started"}, statsHeader...))

	for _, src := range sources {
		run := latest[model.SourceKind(src)]
		g := stats.Group{Source: model.SourceKind(src), Measurements: run.Measurements, Aggregate: stats.Compute(run.Measurements)}

		table.Append(append([]string{src, run.ID.String()[:8], humanize.Time(run.Started)}, statsRow(g)...))
	}

	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	return table
}

func statsRow(g stats.Group) []string {
	agg := g.Aggregate

	return []string{
		strconv.Itoa(agg.Count),
		formatFloat(agg.SuccessRate),
		formatFloat(agg.Mean),
		formatFloat(agg.Median),
		formatFloat(agg.Min),
		formatFloat(agg.Max),
		formatFloat(agg.StdDev),
		humanize.Bytes(maxSize(g.Measurements)),
	}
}

func maxSize(ms []model.Measurement) uint64 {
	var size uint64

	for _, m := range ms {
		size = max(size, m.Size)
	}

	return size
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatP(p float64) string {
	if finite(p) == nil {
		return "n/a"
	}

	return strconv.FormatFloat(p, 'f', 4, 64)
}

// finite returns nil for NaN and infinities.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}
