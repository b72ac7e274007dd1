// Package domain contains the core types of the cartography pipeline:
// datasets loaded from Stack Exchange exports, the universe graph of
// nodes and edges derived from them, and the error taxonomy shared by
// the loader and builder.
//
// Ownership flows one way. The loader owns DomainDataset values for
// the duration of a load pass, the builder consumes them to produce a
// Universe, and the presenter owns that Universe for the lifetime of
// its session. Nothing in this package mutates after construction is
// complete.
package domain
