// Package storage provides the persistence medium abstraction for goSession
// credential records: an in-memory map, a JSON file (the local-storage
// equivalent for desktop and CLI hosts), and a Redis backend for shared or
// daemon deployments.
//
// # Contract
//
// A [Medium] is a flat key/value namespace. Readers must treat a missing or
// unreadable key as absent; implementations never invent values and never
// interpret the bytes they hold.
//
// # Architecture boundaries
//
// This package moves opaque bytes. Credential schema, expiry interpretation,
// and migration live in the credential package.
//
// # What this package must NOT do
//
//   - Decode or validate credential payloads.
//   - Import goSession, credential, or policy (no upward imports).
//   - Cache values across Get calls in a way that hides external deletion.
package storage
