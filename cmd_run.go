package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imgbench/bench"
	"imgbench/model"
	"imgbench/stats"
)

func (c *cli) runCmd() *cobra.Command {
	var csvPath, summaryPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark batch over the seeded images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, true, func(a *app) error {
				ctx := cmd.Context()
				s := a.settings

				jobs, err := a.plan(cmd)

				if err != nil {
					return err
				}

				runner, err := a.runner(true)

				if err != nil {
					return err
				}

				run, err := runner.Run(ctx, s.Mode, jobs)

				if run == nil {
					return err
				}

				renderReport(cmd.OutOrStdout(), run.Measurements)

				if csvPath != "" {
					if werr := writeCSV(csvPath, run.Measurements); werr != nil {
						return werr
					}
				}

				if summaryPath != "" {
					if werr := writeSummary(summaryPath, run); werr != nil {
						return werr
					}
				}

				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.String("mode", "", "sequential or parallel")
	flags.StringSlice("sources", nil, "sources to load from (FILE, BLOB)")
	flags.StringSlice("strategies", nil, "transport strategies (stream, buffer, zerocopy)")
	flags.Int("iterations", 0, "loads per item, source and strategy")
	flags.Duration("settle", 0, "pause between sequential loads")
	flags.Int("workers", 0, "parallel worker limit, 0 for one per job")
	flags.Duration("timeout", 0, "per load timeout")
	flags.Bool("validate", true, "check that loaded bytes carry an image header")
	flags.StringVar(&csvPath, "csv", "", "export measurements to this csv file")
	flags.StringVar(&summaryPath, "summary", "", "write a yaml summary to this file")

	c.bind(cmd, runFlagKeys)

	return cmd
}

var runFlagKeys = map[string]string{
	"mode":       keyMode,
	"sources":    keySources,
	"strategies": keyStrategies,
	"iterations": keyIterations,
	"settle":     keySettle,
	"workers":    keyWorkers,
	"timeout":    keyTimeout,
	"validate":   keyValidate,
}

func (a *app) plan(cmd *cobra.Command) ([]bench.Job, error) {
	items, err := a.items(cmd.Context())

	if err != nil {
		return nil, err
	}

	return bench.Plan(bench.PlanConfig{
		Items:      items,
		Sources:    a.settings.Sources,
		Strategies: a.settings.Strategies,
		Iterations: a.settings.Iterations,
	})
}

// runner builds the batch runner. With clearEach the cache is cleared before
// every batch; otherwise the caller owns clearing it.
func (a *app) runner(clearEach bool) (bench.Runner, error) {
	loader, err := a.loader()

	if err != nil {
		return nil, err
	}

	cfg := bench.Config{
		Loader:      loader,
		SettleDelay: a.settings.SettleDelay,
		Workers:     a.settings.Workers,
		Timeout:     a.settings.Timeout,
		Logger:      a.log,
	}

	if a.settings.Validate {
		cfg.Validate = bench.ImageHeader
	}

	if clearEach {
		cfg.Cache = a.cache
	}

	return bench.NewRunner(cfg), nil
}

func writeCSV(path string, ms []model.Measurement) error {
	f, err := os.Create(path)

	if err != nil {
		return errors.Wrap(err, "create csv export")
	}

	if err := model.WriteRecords(f, ms); err != nil {
		_ = f.Close()
		return err
	}

	return errors.Wrap(f.Close(), "close csv export")
}

type sourceSummary struct {
	Source    string          `yaml:"source"`
	Aggregate stats.Aggregate `yaml:"stats"`
}

type runSummary struct {
	RunID         string          `yaml:"run_id"`
	Mode          string          `yaml:"mode"`
	Started       time.Time       `yaml:"started"`
	Elapsed       string          `yaml:"elapsed"`
	Overall       stats.Aggregate `yaml:"overall"`
	Sources       []sourceSummary `yaml:"sources"`
	Verdict       string          `yaml:"verdict,omitempty"`
	WelchP        *float64        `yaml:"welch_p,omitempty"`
	MannWhitneyUP *float64        `yaml:"mann_whitney_p,omitempty"`
}

func newRunSummary(run *bench.Run) runSummary {
	sum := runSummary{
		RunID:   run.ID.String(),
		Mode:    string(run.Mode),
		Started: run.Started,
		Elapsed: run.Elapsed.String(),
		Overall: stats.Compute(run.Measurements),
	}

	for _, g := range stats.GroupBySource(run.Measurements) {
		sum.Sources = append(sum.Sources, sourceSummary{Source: string(g.Source), Aggregate: g.Aggregate})
	}

	if cmp, err := stats.CompareSources(run.Measurements, model.File, model.Blob); err == nil {
		sum.Verdict = cmp.Summary()
		sum.WelchP = finite(cmp.WelchP)
		sum.MannWhitneyUP = finite(cmp.MannWhitneyUP)
	}

	return sum
}

func writeSummary(path string, run *bench.Run) error {
	out, err := yaml.Marshal(newRunSummary(run))

	if err != nil {
		return errors.Wrap(err, "encode summary")
	}

	return errors.Wrap(os.WriteFile(path, out, 0o640), "write summary")
}
