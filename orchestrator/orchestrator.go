// Package orchestrator implements the query processing pipeline: analyze the
// required expertise, provision missing experts, plan, execute with
// dependency ordering and parallel groups, then merge and deduplicate the
// results. ProcessQuery always returns a string; every recoverable failure
// degrades to a fallback and the few unrecoverable ones are rendered as an
// explanatory message.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/expert"
	"github.com/seacor-ai/seacor/internal/util"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
	"github.com/seacor-ai/seacor/planner"
	"github.com/seacor-ai/seacor/tool"
)

// noResultMessage is returned when no task produced any output.
const noResultMessage = "申し訳ありませんが、クエリに対する適切な回答を生成できませんでした。"

// defaultExpertise is the capability pair assumed when expertise analysis
// fails.
var defaultExpertise = []core.Capability{"論理分析", "コード最適化"}

// AssessmentCycle receives the finished run for background self-assessment.
// Implementations must be safe to call from a goroutine that outlives the
// request.
type AssessmentCycle interface {
	Run(ctx context.Context, prompt string, plan *core.ExecutionPlan, results []string)
}

// Options configures an Orchestrator.
type Options struct {
	// Planner generates execution plans. Defaults to a planner backed by the
	// orchestrator's provider.
	Planner *planner.Planner
	// Tools is the shared tool set bound to every synthesized expert.
	Tools []tool.Tool
	// MaxExpertise caps the number of capabilities taken from expertise
	// analysis. Defaults to 5.
	MaxExpertise int
	// Assessment, when set, runs in the background after each query.
	Assessment AssessmentCycle
	// Logger receives pipeline progress. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Orchestrator coordinates experts, planner and provider for ProcessQuery.
// Safe for concurrent use; overlapping queries share the registry.
type Orchestrator struct {
	registry *expert.Registry
	provider model.Provider
	planner  *planner.Planner
	tools    []tool.Tool
	maxCaps  int
	assess   AssessmentCycle
	logger   logging.Logger
	bg       sync.WaitGroup
}

// New constructs an Orchestrator around a registry and a completion provider.
func New(registry *expert.Registry, provider model.Provider, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxExpertise: 5,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Planner == nil {
		opts.Planner = planner.New(provider, opts.Logger)
	}
	if opts.MaxExpertise <= 0 {
		opts.MaxExpertise = 5
	}

	return &Orchestrator{
		registry: registry,
		provider: provider,
		planner:  opts.Planner,
		tools:    opts.Tools,
		maxCaps:  opts.MaxExpertise,
		assess:   opts.Assessment,
		logger:   opts.Logger,
	}
}

// resultEntry keeps execution results insertion ordered, keyed the way they
// were produced (task description or parallel_<n>).
type resultEntry struct {
	key   string
	value string
}

// ProcessQuery runs the full pipeline for one query and returns the merged
// answer. It never returns an error: recoverable failures fall back, and a
// failed expert synthesis is rendered as an explanatory message.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string) string {
	queryID := uuid.NewString()
	o.logger.Info("query received", "query_id", queryID, "query", query)

	required := o.analyzeExpertise(ctx, query)
	o.logger.Info("required expertise", "query_id", queryID, "expertise", required)

	if err := o.ensureExperts(ctx, required); err != nil {
		o.logger.Error("expert provisioning failed", "query_id", queryID, "error", err)
		return fmt.Sprintf("申し訳ありませんが、クエリの処理中にエラーが発生しました: %s", err)
	}

	plan := o.planner.Plan(ctx, query, required)
	entries := o.execute(ctx, plan, query)
	merged := mergeResults(entries)

	if o.assess != nil {
		values := make([]string, len(entries))
		for i, e := range entries {
			values[i] = e.value
		}
		o.bg.Add(1)
		go func() {
			defer o.bg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("assessment cycle panicked", "query_id", queryID, "panic", r)
				}
			}()
			// Detached from the request context: the caller already has its
			// answer when this runs.
			o.assess.Run(context.Background(), query, plan, values)
		}()
	}

	return merged
}

// Wait blocks until all background assessment cycles have finished.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

// analyzeExpertise asks the provider which capabilities the query needs.
// The first JSON array in the response is taken; any failure yields the
// default pair. The list is deduplicated and capped at MaxExpertise.
func (o *Orchestrator) analyzeExpertise(ctx context.Context, query string) []core.Capability {
	prompt := fmt.Sprintf(`以下のクエリを処理するために必要な専門分野を特定してください：
%s

専門分野は具体的で、実行可能なものにしてください。
以下の形式でJSON配列として出力してください：
[
    "専門分野1",
    "専門分野2",
    ...
]

注意点：
- 専門分野は具体的で、実行可能なものにしてください
- 例：論理分析、コード最適化、セキュリティ評価、データ分析など
- 最低1つ、最大5つまでの専門分野を提案してください`, query)

	text, err := model.GenerateOne(ctx, o.provider, prompt)
	if err != nil {
		o.logger.Warn("expertise analysis failed, using defaults", "error", err)
		return defaultExpertise
	}

	var names []string
	if !util.FirstJSONArray(text, &names) || len(names) == 0 {
		o.logger.Warn("no expertise list found in provider response, using defaults")
		return defaultExpertise
	}

	caps := make([]core.Capability, 0, len(names))
	for _, n := range names {
		caps = append(caps, core.Capability(n))
	}
	caps = core.NormalizeCapabilities(caps)
	if len(caps) == 0 {
		return defaultExpertise
	}
	if len(caps) > o.maxCaps {
		caps = caps[:o.maxCaps]
	}
	return caps
}

// ensureExperts synthesizes and registers an expert for every required
// capability no registered expert covers. Synthesis failures are fatal for
// the request: a roster that cannot cover the query has no useful fallback.
func (o *Orchestrator) ensureExperts(ctx context.Context, required []core.Capability) error {
	for _, c := range required {
		if len(o.registry.FindByCapability(c)) > 0 {
			o.logger.Debug("expertise already covered", "expertise", c)
			continue
		}

		o.logger.Info("synthesizing expert", "expertise", c)
		def, err := o.synthesizeExpert(ctx, c)
		if err != nil {
			return fmt.Errorf("synthesize expert for %q: %w", c, err)
		}

		o.registry.Register(expert.New(def, o.tools, o.logger))
	}
	return nil
}

// synthesizeExpert asks the provider for a full expert definition covering
// the capability. The requested capability is unioned into the generated
// expertise so the new expert is guaranteed to cover it.
func (o *Orchestrator) synthesizeExpert(ctx context.Context, c core.Capability) (core.ExpertDefinition, error) {
	prompt := fmt.Sprintf(`以下の専門分野を持つ専門家の設定を生成してください：
%s

以下の形式でJSONオブジェクトとして出力してください：
{
    "name": "専門家の名前",
    "expertise": ["専門分野1", "専門分野2", ...],
    "goal": "専門家の目標",
    "backstory": "専門家の背景ストーリー"
}

注意点：
- 名前は具体的で、専門分野を反映したものにしてください
- 目標は具体的で、実行可能なものにしてください
- 背景ストーリーは専門家の経験と能力を説明するものにしてください
- 専門分野は必ず入力された専門分野を含めてください
- 必要に応じて関連する専門分野を追加しても構いません`, c)

	text, err := model.GenerateOne(ctx, o.provider, prompt)
	if err != nil {
		return core.ExpertDefinition{}, err
	}

	var def core.ExpertDefinition
	if !util.FirstJSONObject(text, &def) {
		return core.ExpertDefinition{}, fmt.Errorf("no expert definition found in provider response")
	}

	if !core.ContainsCapability(def.Expertise, c) {
		def.Expertise = append(def.Expertise, c)
	}
	def.Expertise = core.NormalizeCapabilities(def.Expertise)

	if err := def.Validate(); err != nil {
		return core.ExpertDefinition{}, err
	}
	return def, nil
}

// execute runs the sequential tier in dependency order, then each parallel
// group concurrently. Tasks with no matching expert are skipped with a
// warning; a group's results are joined by a single newline under one key.
func (o *Orchestrator) execute(ctx context.Context, plan *core.ExecutionPlan, query string) []resultEntry {
	taskCtx := core.NewTaskContext(query)
	var entries []resultEntry

	for _, task := range planner.TopologicalOrder(plan) {
		o.logger.Info("executing task", "task_id", task.ID, "description", task.Description)

		e := o.registry.FindBestMatch(task.Description)
		if e == nil {
			o.logger.Warn("no expert found for task", "task_id", task.ID, "description", task.Description)
			continue
		}

		if result, ok := e.ExecuteTask(ctx, task.Description, taskCtx); ok {
			entries = append(entries, resultEntry{key: task.Description, value: result})
		}
	}

	for _, group := range plan.ParallelGroups {
		results := o.executeGroup(ctx, group, taskCtx)
		if len(results) > 0 {
			entries = append(entries, resultEntry{
				key:   fmt.Sprintf("parallel_%d", len(entries)),
				value: strings.Join(results, "\n"),
			})
		}
	}

	return entries
}

// executeGroup fans the group's tasks out to their best-matched experts and
// collects the non-empty results in task order.
func (o *Orchestrator) executeGroup(ctx context.Context, group []core.Task, taskCtx *core.TaskContext) []string {
	o.logger.Info("executing parallel group", "tasks", len(group))

	slots := make([]string, len(group))
	var wg sync.WaitGroup
	for i, task := range group {
		e := o.registry.FindBestMatch(task.Description)
		if e == nil {
			o.logger.Warn("no expert found for task", "task_id", task.ID, "description", task.Description)
			continue
		}

		wg.Add(1)
		go func(i int, task core.Task, e *expert.Expert) {
			defer wg.Done()
			if result, ok := e.ExecuteTask(ctx, task.Description, taskCtx); ok {
				slots[i] = result
			}
		}(i, task, e)
	}
	wg.Wait()

	results := make([]string, 0, len(group))
	for _, s := range slots {
		if s != "" {
			results = append(results, s)
		}
	}
	return results
}

// mergeResults joins all result values, then removes sections that repeat an
// earlier section's first three lines. First occurrence wins.
func mergeResults(entries []resultEntry) string {
	if len(entries) == 0 {
		return noResultMessage
	}

	values := make([]string, len(entries))
	for i, e := range entries {
		values[i] = e.value
	}
	combined := strings.Join(values, "\n\n")

	sections := strings.Split(combined, "\n\n")
	seen := make(map[string]struct{}, len(sections))
	unique := make([]string, 0, len(sections))
	for _, section := range sections {
		lines := strings.Split(section, "\n")
		if len(lines) > 3 {
			lines = lines[:3]
		}
		key := strings.Join(lines, "\n")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, section)
	}

	return strings.Join(unique, "\n\n")
}
