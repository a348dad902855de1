package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/i18n"
	"github.com/reoring/polyjson/internal/config"
	"github.com/reoring/polyjson/internal/logging"
	"github.com/reoring/polyjson/study"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "polyjson CLI\n\nUsage:\n  polyjson decode [-config f] [-field name] [-format json|yaml] [-j n] [file...]\n  polyjson schema [-config f] [-field name]\n  polyjson labels [-config f] [-field name]\n\nNotes:\n  - decode reads stdin as JSON when no file is given.\n  - decode prints one canonical JSON line per document, in argument order.")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	var err error
	switch args[0] {
	case "decode":
		err = decodeCmd(args[1:], stdin, stdout, stderr)
	case "schema":
		err = schemaCmd(args[1:], stdout, stderr)
	case "labels":
		err = labelsCmd(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		usage(stderr)
		return 2
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, "polyjson:", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

type usageError struct{ error }

// common holds the flags shared by every subcommand.
type common struct {
	config string
	field  string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML configuration file")
	fs.StringVar(&c.field, "field", "", "discriminator member name (overrides config)")
}

func (c *common) load() (config.Config, error) {
	cfg, err := config.Load(c.config)
	if err != nil {
		return cfg, err
	}
	if c.field != "" {
		cfg.Field = c.field
	}
	i18n.SetLanguage(cfg.Language)
	return cfg, nil
}

func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	return nil
}

func decodeCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var c common
	c.register(fs)
	var format string
	var jobs int
	fs.StringVar(&format, "format", "", "input format: json or yaml (default: by file extension)")
	fs.IntVar(&jobs, "j", runtime.GOMAXPROCS(0), "files decoded concurrently")
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	if format != "" && format != "json" && format != "yaml" {
		return usageError{fmt.Errorf("-format must be json or yaml, got %q", format)}
	}
	if jobs < 1 {
		return usageError{fmt.Errorf("-j must be at least 1, got %d", jobs)}
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := study.NewMapper(cfg.Field, polyjson.WithLogger(log), polyjson.WithDecodeOpt(cfg.DecodeOpt()))
	if err != nil {
		return err
	}

	ctx := context.Background()
	files := fs.Args()
	if len(files) == 0 {
		out, err := decodeStream(ctx, m, stdin, formatOr(format, "json"))
		if err != nil {
			return fmt.Errorf("<stdin>: %w", err)
		}
		_, err = stdout.Write(out)
		return err
	}

	outputs := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			out, err := decodeStream(gctx, m, f, formatOr(format, formatOf(path)))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug("decoded file", zap.String("path", path), zap.Int("bytes", len(out)))
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, out := range outputs {
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	}
	return nil
}

func formatOr(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// decodeStream decodes every document in r as a study step and returns the
// canonical JSON encodings, one per line.
func decodeStream(ctx context.Context, m *polyjson.Mapper, r io.Reader, format string) ([]byte, error) {
	var docs []any
	if format == "yaml" {
		var err error
		if docs, err = polyjson.ReadYAML(r, m.DecodeOpt()); err != nil {
			return nil, err
		}
	} else {
		doc, err := polyjson.ReadTree(polyjson.JSONReader(r), m.DecodeOpt())
		if err != nil {
			return nil, err
		}
		docs = []any{doc}
	}
	var buf bytes.Buffer
	for i, doc := range docs {
		step, err := polyjson.Decode[study.Step](ctx, m, doc)
		if err != nil {
			if len(docs) > 1 {
				return nil, fmt.Errorf("document %d: %w", i, err)
			}
			return nil, err
		}
		out, err := polyjson.Marshal(ctx, m, step)
		if err != nil {
			return nil, err
		}
		buf.Write(out)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func schemaCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	var c common
	c.register(fs)
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	reg, err := study.NewRegistries(cfg.Field)
	if err != nil {
		return err
	}
	b, err := gojson.MarshalIndent(reg.Steps.JSONSchema(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s\n", b)
	return err
}

func labelsCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("labels", flag.ContinueOnError)
	var c common
	c.register(fs)
	if err := parseFlags(fs, args, stderr); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	reg, err := study.NewRegistries(cfg.Field)
	if err != nil {
		return err
	}
	writeLabels(stdout, reg.Steps)
	writeLabels(stdout, reg.Themes)
	return nil
}

func writeLabels[T any](w io.Writer, p *polyjson.Polymorphic[T]) {
	fmt.Fprintf(w, "%s (field %q)\n", p.Base(), p.Field())
	for _, l := range p.Labels() {
		t, _ := p.TypeOf(l)
		fmt.Fprintf(w, "  %s\t%s\n", l, t)
	}
	if d := p.Default(); d != nil {
		fmt.Fprintf(w, "  *\t%s\n", d)
	}
}
