// Package expert contains the runtime expert implementation and the
// process-wide expert registry. An Expert wraps an immutable
// core.ExpertDefinition with a live, growable capability set and resolved
// tool bindings; the Registry indexes experts by name and by capability and
// implements the deterministic best-match selection policy the orchestrator
// relies on.
//
// Design principles:
//   - Stable identity: an expert's skill set can grow (Evolve) without
//     replacing the instance or its name
//   - Deterministic selection: scoring ties resolve to the first-registered
//     expert, never to map iteration order
//   - Contained failure: a tool error inside ExecuteTask degrades to a
//     labeled error fragment in the result instead of aborting the task
package expert
