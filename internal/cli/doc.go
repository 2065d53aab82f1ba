// Package cli turns command-line arguments into a validated app.Config. It
// picks the subcommand, layers flags over DEPLOYGRID_* environment defaults
// and maps usage problems to an ExitError carrying exit code 2.
package cli
