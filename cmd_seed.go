package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"imgbench/model"
	"imgbench/source"
)

func (c *cli) seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write generated test images to the file directory and the blob database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, false, func(a *app) error {
				writer, ok := a.blobs.(source.Writer)

				if !ok {
					return errors.Wrap(model.ErrInvalidRequest, "blob store is read-only, seed the remote store separately")
				}

				assets, err := source.Seed(cmd.Context(), source.SeedConfig{
					Count:    a.settings.SeedCount,
					BaseSide: a.settings.SeedSide,
					Quality:  a.settings.SeedQuality,
					Logger:   a.log,
				}, a.files, writer)

				if err != nil {
					return err
				}

				var total uint64

				for _, asset := range assets {
					total += uint64(len(asset.Data))
				}

				a.log.WithField("dir", a.settings.DataDir).
					WithField("db", a.settings.DBPath).
					WithField("images", len(assets)).
					WithField("bytes", total).
					Info("seeded")

				return nil
			})
		},
	}

	cmd.Flags().Int("count", 0, "number of images")
	cmd.Flags().Int("side", 0, "side of the first image in pixels")
	cmd.Flags().Int("quality", 0, "jpeg quality")
	c.bind(cmd, map[string]string{
		"count":   keySeedCount,
		"side":    keySeedSide,
		"quality": keySeedQuality,
	})

	return cmd
}
