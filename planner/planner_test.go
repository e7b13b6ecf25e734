package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
)

func TestPlanner_ParsesProviderPlan(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("実行計画", `Here is the plan:
{
  "tasks": [
    {"id": "t1", "description": "analyze requirements", "expertise": ["分析"]},
    {"id": "t2", "description": "design solution", "expertise": ["設計"]}
  ],
  "parallel_tasks": [
    [
      {"id": "t3", "description": "write docs", "expertise": ["文書化"]},
      {"id": "t4", "description": "write tests", "expertise": ["テスト"]}
    ]
  ],
  "dependencies": {"t2": ["t1"]}
}`)

	p := New(provider, logging.NoOpLogger{})
	plan := p.Plan(context.Background(), "build the feature", []core.Capability{"分析", "設計"})

	assert.Len(t, plan.Tasks, 2)
	assert.Equal(t, "t1", plan.Tasks[0].ID)
	assert.Equal(t, []core.Capability{"分析"}, plan.Tasks[0].Expertise)
	assert.Len(t, plan.ParallelGroups, 1)
	assert.Len(t, plan.ParallelGroups[0], 2)
	assert.Equal(t, []string{"t1"}, plan.Dependencies["t2"])
	assert.Equal(t, "build the feature", plan.OriginalQuery)
}

func TestPlanner_AssignsPositionalIDs(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("実行計画", `{"tasks": [
		{"description": "first step", "expertise": ["分析"]},
		{"description": "second step", "expertise": ["設計"]}
	]}`)

	p := New(provider, logging.NoOpLogger{})
	plan := p.Plan(context.Background(), "q", nil)

	assert.Equal(t, "t1", plan.Tasks[0].ID)
	assert.Equal(t, "t2", plan.Tasks[1].ID)
}

func TestPlanner_FallbackOnProviderError(t *testing.T) {
	provider := model.NewMockProvider()
	provider.SetError(assert.AnError)

	p := New(provider, logging.NoOpLogger{})
	plan := p.Plan(context.Background(), "the query", []core.Capability{"分析"})

	assert.Len(t, plan.Tasks, 1)
	assert.Equal(t, "t1", plan.Tasks[0].ID)
	assert.Equal(t, "the query", plan.Tasks[0].Description)
	assert.Equal(t, []core.Capability{"分析"}, plan.Tasks[0].Expertise)
	assert.Empty(t, plan.ParallelGroups)
}

func TestPlanner_FallbackOnUnparsableResponse(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("実行計画", "I cannot produce a plan for this.")

	p := New(provider, logging.NoOpLogger{})
	plan := p.Plan(context.Background(), "the query", nil)

	assert.Len(t, plan.Tasks, 1)
	assert.Equal(t, "the query", plan.Tasks[0].Description)
}

func TestPlanner_FallbackOnEmptyPlan(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("実行計画", `{"tasks": [], "parallel_tasks": [], "dependencies": {}}`)

	p := New(provider, logging.NoOpLogger{})
	plan := p.Plan(context.Background(), "the query", nil)

	assert.Len(t, plan.Tasks, 1)
	assert.Equal(t, "the query", plan.Tasks[0].Description)
}

func TestTopologicalOrder_RespectsDependencies(t *testing.T) {
	plan := &core.ExecutionPlan{
		Tasks: []core.Task{
			{ID: "t1", Description: "one"},
			{ID: "t2", Description: "two"},
			{ID: "t3", Description: "three"},
		},
		Dependencies: map[string][]string{
			"t1": {"t3"},
			"t2": {"t1"},
		},
	}

	ordered := TopologicalOrder(plan)

	ids := make([]string, len(ordered))
	for i, task := range ordered {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"t3", "t1", "t2"}, ids)
}

func TestTopologicalOrder_StableWithoutDependencies(t *testing.T) {
	plan := &core.ExecutionPlan{
		Tasks: []core.Task{
			{ID: "t1"}, {ID: "t2"}, {ID: "t3"},
		},
		Dependencies: map[string][]string{},
	}

	ordered := TopologicalOrder(plan)

	ids := make([]string, len(ordered))
	for i, task := range ordered {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids)
}

func TestTopologicalOrder_DropsCycle(t *testing.T) {
	plan := &core.ExecutionPlan{
		Tasks: []core.Task{
			{ID: "t1"}, {ID: "t2"},
		},
		Dependencies: map[string][]string{
			"t1": {"t2"},
			"t2": {"t1"},
		},
	}

	assert.Empty(t, TopologicalOrder(plan))
}

func TestTopologicalOrder_PartialCycleKeepsAcyclicPrefix(t *testing.T) {
	plan := &core.ExecutionPlan{
		Tasks: []core.Task{
			{ID: "t1"}, {ID: "t2"}, {ID: "t3"},
		},
		Dependencies: map[string][]string{
			"t2": {"t3"},
			"t3": {"t2"},
		},
	}

	ordered := TopologicalOrder(plan)

	assert.Len(t, ordered, 1)
	assert.Equal(t, "t1", ordered[0].ID)
}

func TestTopologicalOrder_IgnoresUnknownDependencyIDs(t *testing.T) {
	plan := &core.ExecutionPlan{
		Tasks: []core.Task{
			{ID: "t1"}, {ID: "t2"},
		},
		Dependencies: map[string][]string{
			"t1": {"missing"},
			"t2": {"t1"},
		},
	}

	ordered := TopologicalOrder(plan)

	ids := make([]string, len(ordered))
	for i, task := range ordered {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"t1", "t2"}, ids)
}
