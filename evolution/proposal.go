// Package evolution implements the self-assessment loop: evaluating a
// finished run, recording the outcome to an append-only history, asking the
// provider for roster change proposals, and applying accepted proposals to
// the configuration with backup and rollback.
package evolution

// AgentDraft is a loosely-typed agent definition as proposed by the model.
// Drafts arrive with whatever fields the model chose to emit; Store.Apply
// autofills the required ones before persisting.
type AgentDraft map[string]any

// Merge folds several agents into one: every id in From is removed and the
// definition is stored under To.
type Merge struct {
	From       []string   `json:"from" yaml:"from"`
	To         string     `json:"to" yaml:"to"`
	Definition AgentDraft `json:"definition" yaml:"definition"`
}

// CrewUpdate is a replacement definition for an existing crew file. Updates
// are keyed by the "name" field; crews can be modified but never added or
// removed through a proposal.
type CrewUpdate map[string]any

// Proposal is a structured roster change produced by assessment. A nil or
// all-empty proposal is a no-op.
type Proposal struct {
	NewAgents    []AgentDraft `json:"new_agents,omitempty" yaml:"new_agents,omitempty"`
	RemoveAgents []string     `json:"remove_agents,omitempty" yaml:"remove_agents,omitempty"`
	MergeAgents  []Merge      `json:"merge_agents,omitempty" yaml:"merge_agents,omitempty"`
	UpdateCrews  []CrewUpdate `json:"update_crews,omitempty" yaml:"update_crews,omitempty"`
	Improvements []string     `json:"improvements,omitempty" yaml:"improvements,omitempty"`
}

// Empty reports whether the proposal carries no changes at all.
func (p Proposal) Empty() bool {
	return len(p.NewAgents) == 0 &&
		len(p.RemoveAgents) == 0 &&
		len(p.MergeAgents) == 0 &&
		len(p.UpdateCrews) == 0
}
