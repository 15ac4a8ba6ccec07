// Package cli implements the cachectl command tree.
//
// Every command loads the configuration (defaults, config file, environment,
// flags), opens the local store and builds the resource catalog on top of
// it. Results are printed as JSON, indented when stdout is a terminal.
package cli
