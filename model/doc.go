// Package model defines the completion provider abstraction that the
// orchestration core depends on for all text generation, along with a
// deterministic in-memory mock for tests. Concrete backends live in
// sub-packages (model/openai, model/anthropic); the core never imports them
// directly, so any backend satisfying Provider can be plugged in.
package model
