package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dlpb/survey2gis/internal/diag"
	"github.com/dlpb/survey2gis/internal/geom"
	"github.com/dlpb/survey2gis/internal/multiplex"
	"github.com/dlpb/survey2gis/internal/reader"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
	"github.com/dlpb/survey2gis/internal/validate"
)

// pipelineResult is everything downstream subcommands need once the
// schema has been loaded and every input file read, validated, and
// multiplexed into geometry.
type pipelineResult struct {
	schema *schema.Schema
	sink   *diag.Sink
	stores []*store.DataStore
	geoms  *geom.Store
}

// newSink opens the configured log file (if any) and builds a diag.Sink
// writing to both it and the console.
func newSink() (*diag.Sink, func(), error) {
	level, err := diag.ParseLevel(flagVerbose)
	if err != nil {
		return nil, nil, fmt.Errorf("--verbosity: %w", err)
	}

	var logWriter io.Writer
	closer := func() {}
	if flagLog != "" {
		f, err := os.Create(flagLog)
		if err != nil {
			return nil, nil, fmt.Errorf("--log: %w", err)
		}
		logWriter = f
		closer = func() { f.Close() }
	}

	return diag.New(os.Stderr, logWriter, level), closer, nil
}

// runPipeline loads the schema, then reads, validates, and multiplexes
// every file in turn, in the order given.
func runPipeline(files []string) (*pipelineResult, func(), error) {
	if flagSchema == "" {
		return nil, nil, fmt.Errorf("--schema is required")
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("at least one input file is required")
	}

	s, err := schema.Load(flagSchema)
	if err != nil {
		return nil, nil, err
	}
	if err := schema.Validate(s); err != nil {
		return nil, nil, err
	}

	sink, closer, err := newSink()
	if err != nil {
		return nil, nil, err
	}
	if s.TagMode == schema.TagNone && (s.HasTagField() || s.HasKeyField()) {
		sink.Warningf("schema: tag_field and key_field have no effect under tag_mode=none")
	}

	format := validate.DefaultNumericFormat()
	v := validate.New(s, format, flagOffsetX, flagOffsetY, flagOffsetZ)

	var stores []*store.DataStore
	for _, path := range files {
		ds, err := readFile(s, v, sink, path)
		if err != nil {
			closer()
			return nil, nil, err
		}
		stores = append(stores, ds)
	}

	mux := multiplex.New(s, sink, multiplex.Options{Force2D: flagForce2D})
	g := mux.Run(stores, flagSnapTol)

	multiplex.Fuse(g, s)
	for _, w := range multiplex.CheckUnique(s, stores) {
		sink.Warningf("%s", w.Error())
	}

	return &pipelineResult{schema: s, sink: sink, stores: stores, geoms: g}, closer, nil
}

// readFile runs the RecordReader/RecordValidator pair over one input file,
// line by line, appending every record (valid or not — the Multiplexer
// skips invalid ones) to a fresh DataStore.
func readFile(s *schema.Schema, v *validate.Validator, sink *diag.Sink, path string) (*store.DataStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds := store.New(path, len(s.Fields), flagOffsetX, flagOffsetY, flagOffsetZ)
	rd := reader.New(s)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), schema.MaxLineLen)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if rd.IsCommentOrBlank(line) {
			continue
		}

		tup := rd.Read(line)
		rec := store.NewRecord(lineNo, len(s.Fields))
		if err := v.Validate(rec, tup); err != nil {
			sink.Warningf("%s:%d: %s", path, lineNo, err.Error())
		}
		ds.Append(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}
