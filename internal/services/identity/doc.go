// Package identity manages creation, encryption and loading of the local identity.
//
// It enforces passphrase policy, generates the agreement and signing key pairs
// for the configured suite, and persists them via the domain.IdentityStore.
package identity
