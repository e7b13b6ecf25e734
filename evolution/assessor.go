package evolution

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/model"
)

// NoChange is the literal the provider returns from Propose when the current
// roster already covers the query.
const NoChange = "No change"

// Assessor evaluates finished runs with the completion provider. Unlike the
// query pipeline, provider failures bubble up here: the caller (Cycle)
// decides how to contain them.
type Assessor struct {
	provider model.Provider
	logger   logging.Logger
}

// NewAssessor constructs an Assessor. A nil logger is substituted with a
// NoOpLogger.
func NewAssessor(provider model.Provider, logger logging.Logger) *Assessor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Assessor{provider: provider, logger: logger}
}

// Assess asks the provider to point out weaknesses and gaps in the run's
// results, returning the evaluation as free text.
func (a *Assessor) Assess(ctx context.Context, plan *core.ExecutionPlan, results []string) (string, error) {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}

	prompt := fmt.Sprintf("以下の実行結果について、弱点やギャップを指摘してください:\nPlan: %s\nResults: %s",
		planJSON, strings.Join(results, "\n---\n"))

	text, err := model.GenerateOne(ctx, a.provider, prompt)
	if err != nil {
		return "", fmt.Errorf("assess: %w", err)
	}
	return text, nil
}

// Reinforce asks the provider for concrete improvement steps based on an
// evaluation.
func (a *Assessor) Reinforce(ctx context.Context, evaluation string) (string, error) {
	prompt := fmt.Sprintf("以下の評価を元に、改善策や次のステップを具体的に提案してください:\nEvaluation: %s", evaluation)

	text, err := model.GenerateOne(ctx, a.provider, prompt)
	if err != nil {
		return "", fmt.Errorf("reinforce: %w", err)
	}
	return text, nil
}

// Propose asks the provider for a roster change covering gaps the run
// exposed. The response is either a YAML fragment for the expert roster or
// the literal NoChange; it is returned trimmed and is never applied here.
func (a *Assessor) Propose(ctx context.Context, prompt string, results []string, evaluation, improvements string) (string, error) {
	msg := fmt.Sprintf(`以下のプロンプト・AIの回答・評価・改善提案を比較し、足りない専門分野や追加・修正が必要な専門家があれば、YAML形式で提案してください。既存のexperts.yamlの一部だけを出力してください。なければ'No change'とだけ返してください。
プロンプト: %s
回答: %s
評価: %s
改善提案: %s
出力例:
experts:
  - name: ...
    expertise: [...]`, prompt, strings.Join(results, "\n"), evaluation, improvements)

	text, err := model.GenerateOne(ctx, a.provider, msg)
	if err != nil {
		return "", fmt.Errorf("propose: %w", err)
	}
	return strings.TrimSpace(text), nil
}
