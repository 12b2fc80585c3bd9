// Package memory provides in-memory implementations of the durable stores.
//
// Mutex-guarded maps with copy-on-read semantics: every returned value is a
// clone, so callers never share mutable state with the store. Intended for
// tests and demos; production deployments use the sqlite package.
package memory
