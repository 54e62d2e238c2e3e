// Package store supplies documents and their version archives to the
// resolver.
//
// The Vault implementation reads a notes directory whose archives are
// written by an external history process under .history/. Everything here
// is read-only; this module never creates or mutates archives.
package store
