// Package domain defines the data models and contracts shared across the
// engine: identities, prekeys, bundles, handshake messages, stored session
// records, the error taxonomy, and the store/service interfaces.
//
// The types and interfaces subpackages hold the definitions; this package
// re-exports them via aliases so callers can import a single path.
package domain
