// Package cmd implements hearthctl's Cobra command tree: the root command
// carries the -q/--quiet and -v/--verbose global flags that set the
// log/slog level every subcommand's logger reads from, and each subsystem
// (runtime, uninstall, update, permissions, audit) gets its own top-level
// command wired directly into the corresponding internal package.
package cmd
