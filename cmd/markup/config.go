package main

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	markup "github.com/abiiranathan/go-markup"
	"github.com/abiiranathan/go-markup/elements"
	"github.com/abiiranathan/go-markup/evaluator"
	"github.com/abiiranathan/go-markup/lower"
)

// Config is the optional JSON configuration shared by every subcommand.
type Config struct {
	// Elements are extra element names accepted besides the HTML set.
	Elements []string `json:"elements" validate:"dive,required,printascii,excludesall={}"`

	// AllowUnknownElements accepts any element name.
	AllowUnknownElements bool `json:"allowUnknownElements"`

	// CheckExpressions compiles splices at compile time.
	CheckExpressions bool `json:"checkExpressions"`

	// Whitespace is "preserve" or "collapse".
	Whitespace string `json:"whitespace" validate:"omitempty,oneof=preserve collapse"`

	// MaxIterations bounds @while loops. Zero means unbounded.
	MaxIterations int `json:"maxIterations" validate:"gte=0"`

	// Addr is the playground listen address.
	Addr string `json:"addr" validate:"omitempty,hostname_port"`

	// Lang selects the locale for printed summaries.
	Lang string `json:"lang" validate:"omitempty,bcp47_language_tag"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// loadConfig reads and validates the config at path. An empty path yields
// the zero Config.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Options converts the config to compile options using ev for splices.
func (c Config) Options(name string, ev *evaluator.Evaluator) markup.Options {
	ws, _ := lower.ParseWhitespace(c.Whitespace)
	opts := markup.Options{
		Name:                 name,
		Whitespace:           ws,
		AllowUnknownElements: c.AllowUnknownElements,
		CheckExpressions:     c.CheckExpressions,
		MaxIterations:        c.MaxIterations,
	}
	if ev != nil {
		opts.Evaluator = ev
	}
	if len(c.Elements) > 0 {
		opts.Elements = elements.HTML().WithNames(c.Elements...)
	}
	return opts
}

// Printer returns a localized printer for summaries.
func (c Config) Printer() *message.Printer {
	tag := language.English
	if c.Lang != "" {
		if t, err := language.Parse(c.Lang); err == nil {
			tag = t
		}
	}
	return message.NewPrinter(tag)
}
