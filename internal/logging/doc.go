// Package logging assembles the structured slog loggers used across Cadence.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and provides component-tagged loggers plus a no-op logger for
// tests and wiring code that cannot fail. Prefer these constructors over
// hand-rolled slog setup so every component emits the same field shapes.
package logging
