// Package logx is a thin structured-logging layer over zerolog.
//
// It exists so the rest of the codebase never imports zerolog directly:
// packages take a logx.Logger, tests pass logx.Nop(), and the daemon can
// swap sinks and levels at runtime through the Service without anyone
// holding a stale logger.
package logx
