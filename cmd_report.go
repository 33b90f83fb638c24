package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"imgbench/model"
)

func (c *cli) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <csv>",
		Short: "Aggregate measurements from an exported csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := readCSV(args[0])

			if err != nil {
				return err
			}

			renderReport(cmd.OutOrStdout(), ms)

			return nil
		},
	}
}

func readCSV(path string) ([]model.Measurement, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}

	defer f.Close()

	return model.ReadRecords(f)
}
