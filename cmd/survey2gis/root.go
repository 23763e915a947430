package main

import (
	"github.com/spf13/cobra"
)

// Global flags shared by every subcommand, bound once on the root command's
// persistent flag set rather than threaded as RunE arguments.
var (
	flagSchema  string
	flagLog     string
	flagVerbose string
	flagOffsetX float64
	flagOffsetY float64
	flagOffsetZ float64
	flagForce2D bool
	flagSnapTol float64
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "survey2gis",
		Short: "Convert line-oriented ASCII survey data into GIS geometries",
		Long: `survey2gis reads a parser-schema description of a line-oriented ASCII
survey file, validates and multiplexes its records into point/line/polygon
features, and can then select a feature subset or reproject the result.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&flagSchema, "schema", "", "path to the .parser-schema file (required)")
	root.PersistentFlags().StringVar(&flagLog, "log", "", "path to a log file (console output always on)")
	root.PersistentFlags().StringVar(&flagVerbose, "verbosity", "note", "minimum diagnostic level: error|warning|note|debug")
	root.PersistentFlags().Float64Var(&flagOffsetX, "offset-x", 0, "global X coordinate offset")
	root.PersistentFlags().Float64Var(&flagOffsetY, "offset-y", 0, "global Y coordinate offset")
	root.PersistentFlags().Float64Var(&flagOffsetZ, "offset-z", 0, "global Z coordinate offset")
	root.PersistentFlags().BoolVar(&flagForce2D, "force-2d", false, "drop Z to zero on every vertex")
	root.PersistentFlags().Float64Var(&flagSnapTol, "snap", 0, "vertex snap tolerance passed to the geometry store")

	root.AddCommand(newParseCmd())
	root.AddCommand(newSelectCmd())
	root.AddCommand(newReprojectCmd())

	return root
}
