// Package log provides structured logging for roost using zerolog.
//
// Call Init once at process start with the level and format parsed from CLI
// flags, then obtain component loggers with WithComponent/WithDomain/WithCA/
// WithPort for structured fields. The package-level Info/Debug/Warn/Error
// helpers log through the global Logger for call sites that don't need a
// dedicated child logger.
package log
