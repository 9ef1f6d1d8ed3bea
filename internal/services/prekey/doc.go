// Package prekey manages signed prekeys and one-time prekeys for X3DH bootstrap.
//
// Generating prekeys signs a fresh signed prekey with the identity signing key
// and stores a batch of one-time prekeys. The published bundle names the
// newest signed prekey and the oldest one-time prekey still unused; the
// responder consumes that one-time prekey when the first message arrives.
package prekey
