// Package app wires application dependencies for the CLI.
//
// It validates Config, builds the crypto provider, the stores for the chosen
// backend and the high-level services, and exposes them via Wire.
package app
