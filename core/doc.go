// Package core provides the foundational domain types used by SEACOR. It
// defines the core abstractions for:
//
//   - Capabilities (expertise tags matched against free-text tasks)
//   - Expert definitions (the immutable configuration of an expert)
//   - Tasks and execution plans (structured decompositions of a query)
//   - TaskContext (scoped per-task execution data handed to tools)
//
// The package intentionally keeps implementation concerns (registries,
// orchestration, model providers, concrete tools) out of scope so that every
// other package can depend on it without cycles. All exported identifiers
// include concise documentation to aid discoverability.
package core
