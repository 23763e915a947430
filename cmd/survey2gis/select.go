package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlpb/survey2gis/internal/selection"
)

func newSelectCmd() *cobra.Command {
	var selectArgs []string

	cmd := &cobra.Command{
		Use:   "select <file> [file2 ...]",
		Short: "Parse, multiplex, then run an ordered chain of selection commands",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, closer, err := runPipeline(args)
			if err != nil {
				return err
			}
			defer closer()

			cmds, err := selection.ParseAndValidate(selectArgs, res.schema)
			if err != nil {
				return err
			}

			eng := selection.New(res.schema)
			for _, report := range eng.Run(cmds, res.geoms) {
				fmt.Printf("%-40s points=%d lines=%d polygons=%d\n",
					report.Command, report.Points, report.Lines, report.Polygons)
			}
			if res.sink.Errored() {
				return fmt.Errorf("completed with errors, run id %s", res.sink.RunID())
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&selectArgs, "select", nil,
		`a selection command, "[!] type[+|-] : geom [ : field : expr ]"; repeatable, applied in order`)
	return cmd
}
