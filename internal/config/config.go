// Package config loads the CLI configuration file.
//
// A configuration looks like:
//
//	field: type
//	language: en
//	decode:
//	  duplicates: error
//	  maxDepth: 64
//	  maxBytes: 1048576
//	log:
//	  level: info
//	  format: console
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	polyjson "github.com/reoring/polyjson"
)

// Config is the top-level configuration.
type Config struct {
	// Field is the discriminator member name.
	Field string `yaml:"field"`
	// Language selects the message catalog ("en" or "ja").
	Language string `yaml:"language"`
	Decode   Decode `yaml:"decode"`
	Log      Log    `yaml:"log"`
}

// Decode holds input limits.
type Decode struct {
	// Duplicates is the duplicate-key policy: ignore, warn or error.
	Duplicates string `yaml:"duplicates"`
	MaxDepth   int    `yaml:"maxDepth"`
	MaxBytes   int64  `yaml:"maxBytes"`
	FailFast   bool   `yaml:"failFast"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Field:    polyjson.DefaultField,
		Language: "en",
		Decode:   Decode{Duplicates: "error", MaxDepth: 64},
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Load reads path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over Default and validates the result. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var iss polyjson.Issues
	bad := func(path, detail string) {
		iss = append(iss, polyjson.Issue{Kind: polyjson.ErrInvalidArgument, Path: path, Code: polyjson.CodeInvalidArgument, Message: detail})
	}
	if c.Field == "" {
		bad("/field", "field must not be empty")
	}
	switch c.Language {
	case "en", "ja":
	default:
		bad("/language", fmt.Sprintf("unsupported language %q", c.Language))
	}
	if _, ok := severities[c.Decode.Duplicates]; !ok {
		bad("/decode/duplicates", fmt.Sprintf("duplicates must be ignore, warn or error, got %q", c.Decode.Duplicates))
	}
	if c.Decode.MaxDepth < 0 {
		bad("/decode/maxDepth", "maxDepth must not be negative")
	}
	if c.Decode.MaxBytes < 0 {
		bad("/decode/maxBytes", "maxBytes must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		bad("/log/level", fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		bad("/log/format", fmt.Sprintf("log format must be console or json, got %q", c.Log.Format))
	}
	if len(iss) == 0 {
		return nil
	}
	return iss
}

var severities = map[string]polyjson.Severity{
	"ignore": polyjson.Ignore,
	"warn":   polyjson.Warn,
	"error":  polyjson.Error,
}

// DecodeOpt converts the decode section. Call it on a validated Config.
func (c Config) DecodeOpt() polyjson.DecodeOpt {
	return polyjson.DecodeOpt{
		Strictness: polyjson.Strictness{OnDuplicateKey: severities[c.Decode.Duplicates]},
		MaxDepth:   c.Decode.MaxDepth,
		MaxBytes:   c.Decode.MaxBytes,
		FailFast:   c.Decode.FailFast,
	}
}
