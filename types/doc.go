// Package types contains the shared domain types and dependency interfaces of
// the worklist coordination engine.
//
// It exists as a separate package so that leaf components (lock manager, load
// counter, stores, broadcast hub) can depend on the same definitions without
// importing the root worklist package, which would create an import cycle.
// The root package re-exports the common names via type aliases.
package types
