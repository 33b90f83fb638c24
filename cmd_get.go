package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"imgbench/fetch"
	"imgbench/model"
)

func (c *cli) getCmd() *cobra.Command {
	var (
		strategy string
		out      string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "get <source> <key>",
		Short: "Load a single item through the cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseSourceKind(args[0])

			if err != nil {
				return err
			}

			st, err := fetch.ParseStrategy(strategy)

			if err != nil {
				return err
			}

			return c.with(cmd, true, func(a *app) error {
				loader, err := a.loader()

				if err != nil {
					return err
				}

				ctx, cancel := withTimeout(cmd.Context(), a.settings.Timeout)
				defer cancel()

				start := time.Now()
				data, err := loader.Load(ctx, fetch.Request{Key: args[1], Source: kind, Strategy: st, SkipCache: noCache})
				elapsed := time.Since(start)

				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s in %s\n", kind, args[1], humanize.Bytes(uint64(len(data))), elapsed)

				if out != "" {
					return errors.Wrap(os.WriteFile(out, data, 0o640), "write output")
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(fetch.Buffer), "transport strategy")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the bytes to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache")

	return cmd
}
