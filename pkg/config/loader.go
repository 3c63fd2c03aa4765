package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type loader struct {
	files    []string
	optional bool
	prefix   string
	environ  map[string]string
}

type Option func(*loader)

// WithEnvFiles loads the given files instead of ./.env. Missing files are an error.
// Earlier files win over later ones; the process environment wins over all of them.
func WithEnvFiles(files ...string) Option {
	return func(l *loader) {
		l.files = files
		l.optional = false
	}
}

// WithPrefix prepends prefix to every env tag, e.g. "JOBS_" turns PG_CONN_URL into JOBS_PG_CONN_URL.
func WithPrefix(prefix string) Option {
	return func(l *loader) {
		l.prefix = prefix
	}
}

// WithEnvironment parses from m instead of the process environment. Used by tests.
func WithEnvironment(m map[string]string) Option {
	return func(l *loader) {
		l.environ = m
	}
}

// Load fills v from the environment using its env/envDefault tags.
// A ./.env file is read first if present.
//
//	var cfg struct {
//		Tenant tenant.Config
//		PG     pg.Config
//	}
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	l := &loader{files: []string{".env"}, optional: true}
	for _, opt := range opts {
		opt(l)
	}

	if l.environ == nil {
		for _, f := range l.files {
			if err := godotenv.Load(f); err != nil {
				if l.optional && errors.Is(err, os.ErrNotExist) {
					continue
				}
				return errors.Join(ErrEnvFile, fmt.Errorf("%s: %w", f, err))
			}
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: l.prefix, Environment: l.environ}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Meant for main.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
