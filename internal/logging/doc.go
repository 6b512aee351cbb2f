// Package logging provides slog construction and shared attribute helpers.
// Pipeline components receive a *slog.Logger at construction time and
// annotate it with a component attribute; nothing in the repository logs
// through a package-level logger.
package logging
