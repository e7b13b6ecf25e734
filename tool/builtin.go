package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/internal/util"
	"github.com/seacor-ai/seacor/model"
)

// Well-known tool names. Experts apply special selection rules to
// CodeAnalysisName (it is only bound into a task when code is actually
// present), so the name is part of the contract, not just a label.
const (
	WebSearchName    = "web_search"
	CodeAnalysisName = "code_analysis"
)

// WebSearchTool produces search-style findings for a query using the
// completion provider. It stands in for a real search backend: the provider
// is asked to present what it knows in the shape of search results.
type WebSearchTool struct {
	provider model.Provider
}

// NewWebSearchTool constructs a WebSearchTool backed by the given provider.
func NewWebSearchTool(provider model.Provider) *WebSearchTool {
	return &WebSearchTool{provider: provider}
}

// Name implements Tool.
func (t *WebSearchTool) Name() string { return WebSearchName }

// Description implements Tool.
func (t *WebSearchTool) Description() string {
	return "Web検索を実行し、関連情報を取得します"
}

// Parameters implements Tool.
func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "検索クエリ"},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool.
func (t *WebSearchTool) Call(ctx context.Context, _ *core.TaskContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "申し訳ありませんが、クエリの内容が空白になっています。具体的な検索クエリや調べたいテーマを教えていただけますでしょうか？", nil
	}

	prompt := fmt.Sprintf(`以下のクエリに関連する情報を、Web検索結果のような形式で生成してください：
%s

以下の形式で情報を提供してください：
1. クエリに関連する主要な情報や事実
2. 関連する具体的な例やケーススタディ
3. 実用的なアドバイスや推奨事項

情報は具体的で、実用的なものにしてください。`, query)

	text, err := model.GenerateOne(ctx, t.provider, prompt)
	if err != nil {
		return nil, &ToolError{Tool: t.Name(), Message: err.Error(), Code: "EXECUTION_ERROR"}
	}
	return text, nil
}

// CodeAnalysisTool analyzes a code snippet for quality, performance and
// security concerns using the completion provider. The code is normally
// supplied by the calling expert, which extracts the first fenced block from
// the original query; when absent, the tool attempts the same extraction on
// the query argument itself before giving up.
type CodeAnalysisTool struct {
	provider model.Provider
}

// NewCodeAnalysisTool constructs a CodeAnalysisTool backed by the given provider.
func NewCodeAnalysisTool(provider model.Provider) *CodeAnalysisTool {
	return &CodeAnalysisTool{provider: provider}
}

// Name implements Tool.
func (t *CodeAnalysisTool) Name() string { return CodeAnalysisName }

// Description implements Tool.
func (t *CodeAnalysisTool) Description() string {
	return "コードを分析し、改善点を提案します"
}

// Parameters implements Tool.
func (t *CodeAnalysisTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":    map[string]any{"type": "string", "description": "分析の目的"},
			"code":     map[string]any{"type": "string", "description": "分析対象のコード"},
			"language": map[string]any{"type": "string", "description": "コードの言語"},
		},
		"required": []string{"query"},
	}
}

// Call implements Tool.
func (t *CodeAnalysisTool) Call(ctx context.Context, _ *core.TaskContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "申し訳ありませんが、クエリの内容が空白になっています。分析したいコードや目的を教えていただけますでしょうか？", nil
	}

	code, _ := args["code"].(string)
	if code == "" {
		if blocks := util.ExtractCodeBlocks(query); len(blocks) > 0 {
			code = blocks[0]
		}
	}
	if code == "" {
		return "すみませんが、コードが空白のようです。分析するコードが提供されていないため、具体的な改善提案ができません。", nil
	}

	language, _ := args["language"].(string)
	if language == "" {
		language = "python"
	}

	prompt := fmt.Sprintf("以下の%sコードを分析し、改善点を提案してください：\n```%s\n%s\n```\n\n以下の観点から分析を行ってください：\n1. コードの品質（可読性、保守性）\n2. パフォーマンスの最適化\n3. セキュリティの考慮\n4. ベストプラクティスの適用\n\n具体的な改善案と、その理由を説明してください。", language, language, code)

	text, err := model.GenerateOne(ctx, t.provider, prompt)
	if err != nil {
		return nil, &ToolError{Tool: t.Name(), Message: err.Error(), Code: "EXECUTION_ERROR"}
	}
	return text, nil
}
