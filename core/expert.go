package core

// ExpertDefinition is the immutable configuration record an expert is built
// from. Definitions originate from the expert roster (experts.yaml) at
// startup or are synthesized at runtime by the completion provider when a
// query requires a capability no registered expert covers.
//
// Name is the expert's stable identity; a runtime expert's live capability
// set may grow beyond Expertise (see the expert package) but is always a
// superset of it.
type ExpertDefinition struct {
	Name      string       `json:"name" yaml:"name"`
	Expertise []Capability `json:"expertise" yaml:"expertise"`
	Goal      string       `json:"goal" yaml:"goal"`
	Backstory string       `json:"backstory" yaml:"backstory"`
	// Tools lists the bound tool names in binding order. Binding order is
	// significant: tools are invoked in this order during task execution.
	Tools []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// Validate reports the first missing required field, if any. Expertise must
// contain at least one tag; Backstory is optional.
func (d ExpertDefinition) Validate() error {
	switch {
	case d.Name == "":
		return &MissingFieldError{Field: "name"}
	case len(d.Expertise) == 0:
		return &MissingFieldError{Field: "expertise"}
	case d.Goal == "":
		return &MissingFieldError{Field: "goal"}
	}
	return nil
}

// MissingFieldError reports a required field absent from an expert
// definition. A malformed synthesis makes the run unrecoverable, so this is
// one of the few errors allowed to propagate past its call site.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "expert definition missing required field: " + e.Field
}
