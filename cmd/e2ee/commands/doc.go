// Package commands implements the e2ee CLI.
//
// Peers exchange bundles and envelopes as JSON files (or via stdin/stdout);
// moving them between machines is left to the user.
package commands
