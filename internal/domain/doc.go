// Package domain defines the core domain types for the Librarium graph
// reconstruction system.
//
// This package contains the fundamental entities and value objects used to
// describe an unknown directed graph of rooms probed through a remote oracle:
// doors, labels, paths, probe plans, raw observations, and the final
// solution document.
//
// # Core Types
//
// Door and Label are the two alphabets of the problem: every room has six
// labeled exits (doors 0-5) and carries a 2-bit label (0-3) that does not
// uniquely identify it.
//
// Path is an ordered door sequence interpreted from the start room. Plan
// extends Path with label-edit operations, matching the oracle's wire syntax
// ("012[3]45"). Observation pairs a plan with the raw label sequence the
// oracle returned and knows how to separate arrival labels from edit echoes.
//
// SolutionMap is the bidirectional connection table emitted once the
// reconstruction completes, and doubles as the fixture format for the
// simulated oracle.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
