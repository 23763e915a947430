package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file> [file2 ...]",
		Short: "Read, validate, and multiplex input files into geometry, printing a summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, closer, err := runPipeline(args)
			if err != nil {
				return err
			}
			defer closer()

			fmt.Printf("points: %d  lines: %d  polygons: %d  raw vertices: %d\n",
				len(res.geoms.Points), len(res.geoms.Lines), len(res.geoms.Polygons), len(res.geoms.RawVertices))
			ext := res.geoms.Extent()
			fmt.Printf("extent: [%.6f, %.6f] to [%.6f, %.6f]\n", ext[0], ext[1], ext[2], ext[3])
			if res.sink.Errored() {
				return fmt.Errorf("completed with errors, run id %s", res.sink.RunID())
			}
			return nil
		},
	}
}
