// Package planner turns a free-text query plus the set of known expertise
// into a structured execution plan by asking the completion provider for a
// JSON decomposition. Plan generation never fails: any parse or shape
// problem degrades to a single-task plan, and dependency cycles degrade to
// a partial ordering.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/internal/util"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
)

// Planner generates execution plans via the completion provider.
type Planner struct {
	provider model.Provider
	logger   logging.Logger
}

// New constructs a Planner. A nil logger is substituted with a NoOpLogger.
func New(provider model.Provider, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Planner{provider: provider, logger: logger}
}

// payload mirrors the JSON shape requested from the provider.
type payload struct {
	Tasks         []taskPayload       `json:"tasks"`
	ParallelTasks [][]taskPayload     `json:"parallel_tasks"`
	Dependencies  map[string][]string `json:"dependencies"`
}

type taskPayload struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Expertise   []string `json:"expertise"`
}

// Plan asks the provider to decompose the query into tasks, parallel groups
// and dependencies. The raw response is scanned for the first top-level
// {...} region; on any parse failure or an empty decomposition the fallback
// is a single-task plan whose one task is the original query. Plan never
// returns nil and never returns an error.
func (p *Planner) Plan(ctx context.Context, query string, expertise []core.Capability) *core.ExecutionPlan {
	prompt := buildPlanPrompt(query, expertise)

	text, err := model.GenerateOne(ctx, p.provider, prompt)
	if err != nil {
		p.logger.Warn("plan generation failed, falling back to single-task plan", "error", err)
		return core.SingleTaskPlan(query, expertise)
	}

	var raw payload
	if !util.FirstJSONObject(text, &raw) {
		p.logger.Warn("no JSON plan found in provider response, falling back to single-task plan")
		return core.SingleTaskPlan(query, expertise)
	}

	plan := &core.ExecutionPlan{
		Dependencies:  raw.Dependencies,
		OriginalQuery: query,
	}
	if plan.Dependencies == nil {
		plan.Dependencies = map[string][]string{}
	}

	seq := 0
	for _, tp := range raw.Tasks {
		plan.Tasks = append(plan.Tasks, toTask(tp, &seq))
	}
	for _, group := range raw.ParallelTasks {
		var tasks []core.Task
		for _, tp := range group {
			tasks = append(tasks, toTask(tp, &seq))
		}
		if len(tasks) > 0 {
			plan.ParallelGroups = append(plan.ParallelGroups, tasks)
		}
	}

	if len(plan.Tasks) == 0 && len(plan.ParallelGroups) == 0 {
		p.logger.Warn("provider plan contained no tasks, falling back to single-task plan")
		return core.SingleTaskPlan(query, expertise)
	}

	p.logger.Info("execution plan created",
		"tasks", len(plan.Tasks),
		"parallel_groups", len(plan.ParallelGroups),
		"dependencies", len(plan.Dependencies))
	return plan
}

// toTask converts a payload task, assigning a positional id (t1, t2, ...)
// when the provider omitted one.
func toTask(tp taskPayload, seq *int) core.Task {
	*seq++
	id := tp.ID
	if id == "" {
		id = fmt.Sprintf("t%d", *seq)
	}
	caps := make([]core.Capability, 0, len(tp.Expertise))
	for _, e := range tp.Expertise {
		caps = append(caps, core.Capability(e))
	}
	return core.Task{ID: id, Description: tp.Description, Expertise: caps}
}

func buildPlanPrompt(query string, expertise []core.Capability) string {
	names := make([]string, len(expertise))
	for i, c := range expertise {
		names[i] = string(c)
	}

	return fmt.Sprintf(`以下のクエリを処理するための実行計画を立案してください：
%s

利用可能な専門分野：
%s

以下の形式でJSONとして出力してください：
{
    "tasks": [
        {"id": "t1", "description": "タスクの説明", "expertise": ["必要な専門分野"]}
    ],
    "parallel_tasks": [
        [
            {"id": "t2", "description": "並列実行可能なタスク1", "expertise": ["必要な専門分野"]},
            {"id": "t3", "description": "並列実行可能なタスク2", "expertise": ["必要な専門分野"]}
        ]
    ],
    "dependencies": {
        "t2": ["t1"]
    }
}

注意点：
- タスクは具体的で実行可能な単位に分割してください
- 並列実行可能なタスクは適切にグループ化してください
- 依存関係は明確に定義してください`, query, strings.Join(names, ", "))
}

// TopologicalOrder linearizes the sequential tier of a plan by repeatedly
// selecting every task whose prerequisites are satisfied, keeping the
// original list order among simultaneously-ready tasks. Dependency ids not
// present in the task list are ignored. When no task is ready but tasks
// remain (a dependency cycle), the remainder is dropped from the ordering.
func TopologicalOrder(plan *core.ExecutionPlan) []core.Task {
	present := make(map[string]int, len(plan.Tasks))
	for i, t := range plan.Tasks {
		present[t.ID] = i
	}

	// indegree over dependencies restricted to present ids
	pending := make(map[string]map[string]struct{}, len(plan.Tasks))
	for _, t := range plan.Tasks {
		ins := make(map[string]struct{})
		for _, dep := range plan.Dependencies[t.ID] {
			if _, ok := present[dep]; ok && dep != t.ID {
				ins[dep] = struct{}{}
			}
		}
		pending[t.ID] = ins
	}

	// Self-dependencies participate in cycle detection like any other edge.
	for _, t := range plan.Tasks {
		for _, dep := range plan.Dependencies[t.ID] {
			if dep == t.ID {
				pending[t.ID][dep] = struct{}{}
			}
		}
	}

	ordered := make([]core.Task, 0, len(plan.Tasks))
	for len(pending) > 0 {
		var ready []string
		for id, ins := range pending {
			if len(ins) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			break // cycle: drop the remainder
		}

		// stable: original list order among simultaneously-ready tasks
		sortByListOrder(ready, present)

		for _, id := range ready {
			ordered = append(ordered, plan.Tasks[present[id]])
			delete(pending, id)
		}
		for _, ins := range pending {
			for _, id := range ready {
				delete(ins, id)
			}
		}
	}
	return ordered
}

func sortByListOrder(ids []string, order map[string]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && order[ids[j]] < order[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
