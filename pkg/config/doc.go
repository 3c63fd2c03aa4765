// Package config loads typed configuration from environment variables.
//
// Each package owns a Config struct with env and envDefault tags; the binary composes
// them into one struct and calls Load once at startup. Values in ./.env are applied
// first without overriding variables already set in the process.
package config
