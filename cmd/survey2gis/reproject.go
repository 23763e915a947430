package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlpb/survey2gis/internal/reproj"
)

func newReprojectCmd() *cobra.Command {
	var (
		projIn, projOut string
		dx, dy, dz      float64
		rx, ry, rz, ds  float64
		hasHelmert      bool
		grid            string
	)

	cmd := &cobra.Command{
		Use:   "reproject <file> [file2 ...]",
		Short: "Parse, multiplex, then reproject the resulting geometry between two CRSes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, closer, err := runPipeline(args)
			if err != nil {
				return err
			}
			defer closer()

			cfg := reproj.Config{
				ProjIn: projIn, ProjOut: projOut,
				Dx: dx, Dy: dy, Dz: dz,
				Rx: rx, Ry: ry, Rz: rz, Ds: ds,
				HasUserHelmert: hasHelmert,
				Grid:           grid,
			}
			driver, err := reproj.New(cfg, res.sink)
			if err != nil {
				return err
			}

			if err := driver.Transform(res.geoms); err != nil {
				return err
			}

			ext := res.geoms.Extent()
			fmt.Printf("action: %s\n", actionName(driver.Action()))
			fmt.Printf("extent: [%.6f, %.6f] to [%.6f, %.6f]\n", ext[0], ext[1], ext[2], ext[3])
			if res.sink.Errored() {
				return fmt.Errorf("completed with errors, run id %s", res.sink.RunID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projIn, "in-crs", "", "input CRS: local|epsg:<n>|shorthand|+proj=... string")
	cmd.Flags().StringVar(&projOut, "out-crs", "", "output CRS: local|epsg:<n>|shorthand|+proj=... string")
	cmd.Flags().Float64Var(&dx, "dx", 0, "Helmert translation X (meters)")
	cmd.Flags().Float64Var(&dy, "dy", 0, "Helmert translation Y (meters)")
	cmd.Flags().Float64Var(&dz, "dz", 0, "Helmert translation Z (meters)")
	cmd.Flags().Float64Var(&rx, "rx", 0, "Helmert rotation X (arc-seconds)")
	cmd.Flags().Float64Var(&ry, "ry", 0, "Helmert rotation Y (arc-seconds)")
	cmd.Flags().Float64Var(&rz, "rz", 0, "Helmert rotation Z (arc-seconds)")
	cmd.Flags().Float64Var(&ds, "ds", 0, "Helmert scale difference (ppm)")
	cmd.Flags().BoolVar(&hasHelmert, "helmert", false, "apply the dx/dy/dz/rx/ry/rz/ds Helmert parameters, overriding any embedded transform")
	cmd.Flags().StringVar(&grid, "grid", "", "path to a NAD-style grid shift file, overriding any embedded one")

	return cmd
}

func actionName(a reproj.Action) string {
	switch a {
	case reproj.ActionNone:
		return "none"
	case reproj.ActionReproject:
		return "reproject"
	case reproj.ActionError:
		return "error"
	default:
		return "unknown"
	}
}
