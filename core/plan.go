package core

// Task is one unit of work in an execution plan, described in free text.
// Description may be mutated by callers to append error-correction text on a
// retry; Expertise hints are advisory only and never override best-match
// expert selection.
type Task struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Expertise   []Capability `json:"expertise,omitempty"`
}

// ExecutionPlan is the structured decomposition of a query into a sequential
// task tier, independent parallel groups and a dependency graph. Plans are
// transient: owned by a single ProcessQuery invocation and discarded after
// the merge step.
type ExecutionPlan struct {
	// Tasks is the sequential tier, executed in dependency order.
	Tasks []Task `json:"tasks"`
	// ParallelGroups holds groups of mutually independent tasks. Ordering
	// within a group carries no guarantee; groups themselves run in order.
	ParallelGroups [][]Task `json:"parallel_tasks,omitempty"`
	// Dependencies maps a task id to the ids it depends on. Restricted to
	// ids present in Tasks the graph should be a DAG; cycles degrade to a
	// partial ordering instead of failing.
	Dependencies map[string][]string `json:"dependencies,omitempty"`
	// OriginalQuery is the untouched user query the plan was derived from.
	OriginalQuery string `json:"original_query"`
}

// SingleTaskPlan builds the fallback plan used whenever plan generation
// fails: one task whose description is the original query, no dependencies.
func SingleTaskPlan(query string, expertise []Capability) *ExecutionPlan {
	return &ExecutionPlan{
		Tasks:         []Task{{ID: "t1", Description: query, Expertise: expertise}},
		Dependencies:  map[string][]string{},
		OriginalQuery: query,
	}
}

// TaskContext carries per-task execution data into tool invocations. The
// original query travels alongside the task description because some tools
// (code analysis) extract their real input from it rather than from the task
// text.
type TaskContext struct {
	// OriginalQuery is the full user query for the current run.
	OriginalQuery string
	// Params holds additional free-form parameters for tools.
	Params map[string]any
}

// NewTaskContext constructs a TaskContext for a query with empty params.
func NewTaskContext(originalQuery string) *TaskContext {
	return &TaskContext{OriginalQuery: originalQuery, Params: map[string]any{}}
}
