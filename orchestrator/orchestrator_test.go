package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/expert"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
	"github.com/seacor-ai/seacor/tool"
)

func fixedTool(name, answer string) tool.Tool {
	return tool.NewFunctionTool(
		name,
		"returns a fixed answer",
		map[string]any{"type": "object", "properties": map[string]any{"query": map[string]any{"type": "string"}}},
		func(_ context.Context, _ *core.TaskContext, _ map[string]any) (any, error) {
			return answer, nil
		},
	)
}

func registeredExpert(r *expert.Registry, name string, caps []core.Capability, tools ...tool.Tool) {
	r.Register(expert.New(core.ExpertDefinition{
		Name:      name,
		Expertise: caps,
		Goal:      "answer questions",
	}, tools, logging.NoOpLogger{}))
}

func TestProcessQuery_CodeAnalysisFlow(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["コード分析"]`)
	provider.AddResponse("実行計画を立案", "計画は立てられません")
	provider.AddResponse("コードを分析し", "改善点は次の通りです")

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "コード分析官", []core.Capability{"コード分析"},
		tool.NewCodeAnalysisTool(provider))

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "このコード分析をお願いします: ```python\nprint(1)\n```")

	assert.Equal(t, "code_analysis: 改善点は次の通りです", result)
}

func TestProcessQuery_SynthesizesMissingExpert(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["データ分析"]`)
	provider.AddResponse("専門家の設定を生成", `{
		"name": "データサイエンティスト",
		"expertise": ["統計"],
		"goal": "データから洞察を導く",
		"backstory": "10年の分析経験"
	}`)
	provider.AddResponse("実行計画を立案", "no plan")
	provider.AddResponse("Web検索結果のような形式", "検索結果です")

	registry := expert.NewRegistry(logging.NoOpLogger{})

	o := New(registry, provider, func(opts *Options) {
		opts.Tools = []tool.Tool{tool.NewWebSearchTool(provider)}
	})
	result := o.ProcessQuery(context.Background(), "データ分析をしてください")

	assert.Equal(t, "web_search: 検索結果です", result)

	experts := registry.AllExperts()
	assert.Len(t, experts, 1)
	assert.Equal(t, "データサイエンティスト", experts[0].Name())
	// The requested capability is unioned into the generated expertise.
	assert.True(t, core.ContainsCapability(experts[0].Capabilities(), "データ分析"))
}

func TestProcessQuery_SynthesisFailureReturnsExplanation(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["未知分野"]`)
	provider.AddResponse("専門家の設定を生成", "設定を生成できません")

	registry := expert.NewRegistry(logging.NoOpLogger{})

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "未知分野の質問")

	assert.Contains(t, result, "申し訳ありませんが、クエリの処理中にエラーが発生しました")
	assert.Empty(t, registry.AllExperts())
}

func TestProcessQuery_NoResults(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["セキュリティ"]`)
	provider.AddResponse("実行計画を立案", "no plan")

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "監査役", []core.Capability{"セキュリティ"}) // no tools

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "セキュリティの確認")

	assert.Equal(t, "申し訳ありませんが、クエリに対する適切な回答を生成できませんでした。", result)
}

func TestProcessQuery_DeduplicatesRepeatedSections(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["セキュリティ"]`)
	provider.AddResponse("実行計画を立案", `{
		"tasks": [
			{"id": "t1", "description": "セキュリティの確認その1", "expertise": ["セキュリティ"]},
			{"id": "t2", "description": "セキュリティの確認その2", "expertise": ["セキュリティ"]}
		],
		"dependencies": {"t2": ["t1"]}
	}`)

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "監査役", []core.Capability{"セキュリティ"},
		fixedTool("notes", "同じ回答"))

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "セキュリティの確認")

	assert.Equal(t, 1, strings.Count(result, "同じ回答"))
}

func TestProcessQuery_ParallelGroups(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["分析", "設計"]`)
	provider.AddResponse("実行計画を立案", `{
		"tasks": [],
		"parallel_tasks": [
			[
				{"id": "t1", "description": "要求の分析", "expertise": ["分析"]},
				{"id": "t2", "description": "構成の設計", "expertise": ["設計"]}
			]
		],
		"dependencies": {}
	}`)

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "分析官", []core.Capability{"分析"}, fixedTool("analyze", "Aの結果"))
	registeredExpert(registry, "設計者", []core.Capability{"設計"}, fixedTool("design", "Bの結果"))

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "分析と設計をお願いします")

	assert.Contains(t, result, "Aの結果")
	assert.Contains(t, result, "Bの結果")
}

func TestProcessQuery_SkipsTaskWithoutExpert(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["セキュリティ"]`)
	provider.AddResponse("実行計画を立案", `{
		"tasks": [
			{"id": "t1", "description": "料理のレシピを考える", "expertise": ["料理"]},
			{"id": "t2", "description": "セキュリティの確認", "expertise": ["セキュリティ"]}
		],
		"dependencies": {}
	}`)

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "監査役", []core.Capability{"セキュリティ"},
		fixedTool("notes", "監査結果"))

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "セキュリティの確認")

	assert.Equal(t, "notes: 監査結果", result)
}

type recordingCycle struct {
	mu      sync.Mutex
	prompt  string
	results []string
	calls   int
}

func (c *recordingCycle) Run(_ context.Context, prompt string, _ *core.ExecutionPlan, results []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompt = prompt
	c.results = results
}

func TestProcessQuery_BackgroundAssessment(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", `["セキュリティ"]`)
	provider.AddResponse("実行計画を立案", "no plan")

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "監査役", []core.Capability{"セキュリティ"},
		fixedTool("notes", "監査結果"))

	cycle := &recordingCycle{}
	o := New(registry, provider, func(opts *Options) {
		opts.Assessment = cycle
	})

	result := o.ProcessQuery(context.Background(), "セキュリティの確認")
	o.Wait()

	assert.Equal(t, "notes: 監査結果", result)
	cycle.mu.Lock()
	defer cycle.mu.Unlock()
	assert.Equal(t, 1, cycle.calls)
	assert.Equal(t, "セキュリティの確認", cycle.prompt)
	assert.Equal(t, []string{"notes: 監査結果"}, cycle.results)
}

func TestProcessQuery_DefaultsExpertiseOnUnparsableAnalysis(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("必要な専門分野を特定", "専門分野は特定できません")
	provider.AddResponse("実行計画を立案", "no plan")

	registry := expert.NewRegistry(logging.NoOpLogger{})
	registeredExpert(registry, "分析官", []core.Capability{"論理分析"}, fixedTool("notes", "分析結果"))
	registeredExpert(registry, "最適化担当", []core.Capability{"コード最適化"})

	o := New(registry, provider)
	result := o.ProcessQuery(context.Background(), "この主張を論理分析してください")

	assert.Equal(t, "notes: 分析結果", result)
	// The default pair was already covered, so nothing was synthesized.
	assert.Len(t, registry.AllExperts(), 2)
}

func TestMergeResults_DedupesBySharedLeadingLines(t *testing.T) {
	merged := mergeResults([]resultEntry{
		{key: "a", value: "X\nY\nZ\n結論A"},
		{key: "b", value: "X\nY\nZ\n結論B"},
	})
	assert.Equal(t, "X\nY\nZ\n結論A", merged)
}

func TestMergeResults_Empty(t *testing.T) {
	assert.Equal(t, "申し訳ありませんが、クエリに対する適切な回答を生成できませんでした。", mergeResults(nil))
}

func TestMergeResults_KeepsDistinctSections(t *testing.T) {
	merged := mergeResults([]resultEntry{
		{key: "a", value: "第一の結果"},
		{key: "b", value: "第二の結果"},
	})
	assert.Equal(t, "第一の結果\n\n第二の結果", merged)
}
