package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/model"
)

func TestFunctionTool_Call(t *testing.T) {
	sum := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(_ context.Context, _ *core.TaskContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	result, err := sum.Call(context.Background(), core.NewTaskContext(""), map[string]any{"a": 1.5, "b": 2.5})
	assert.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	echo := NewFunctionTool(
		"echo",
		"Echo the input",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
			"required":   []string{"text"},
		},
		func(_ context.Context, _ *core.TaskContext, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)

	_, err := echo.Call(context.Background(), core.NewTaskContext(""), map[string]any{})
	var toolErr *ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool(
		"failing",
		"Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ *core.TaskContext, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	)

	_, err := failing.Call(context.Background(), core.NewTaskContext(""), map[string]any{})
	var toolErr *ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "failing", toolErr.Tool)
}

func TestFunctionTool_PreservesToolError(t *testing.T) {
	custom := NewFunctionTool(
		"custom",
		"Returns a custom ToolError",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ *core.TaskContext, _ map[string]any) (any, error) {
			return nil, NewToolError("custom", "rate limited", "RATE_LIMIT")
		},
	)

	_, err := custom.Call(context.Background(), core.NewTaskContext(""), map[string]any{})
	var toolErr *ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMIT", toolErr.Code)
}

func TestWebSearchTool(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("Web検索結果のような形式", "1. 検索結果A\n2. 検索結果B")

	ws := NewWebSearchTool(provider)
	assert.Equal(t, WebSearchName, ws.Name())

	result, err := ws.Call(context.Background(), core.NewTaskContext(""), map[string]any{"query": "Goの並行処理"})
	assert.NoError(t, err)
	assert.Equal(t, "1. 検索結果A\n2. 検索結果B", result)
}

func TestWebSearchTool_EmptyQuery(t *testing.T) {
	ws := NewWebSearchTool(model.NewMockProvider())
	result, err := ws.Call(context.Background(), core.NewTaskContext(""), map[string]any{"query": "  "})
	assert.NoError(t, err)
	assert.Contains(t, result.(string), "空白")
}

func TestCodeAnalysisTool_UsesSuppliedCode(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("コードを分析し", "改善点: 特になし")

	ca := NewCodeAnalysisTool(provider)
	result, err := ca.Call(context.Background(), core.NewTaskContext(""), map[string]any{
		"query":    "analyze",
		"code":     "print(1)",
		"language": "python",
	})
	assert.NoError(t, err)
	assert.Equal(t, "改善点: 特になし", result)

	// The extracted code, not a fenced wrapper, must appear in the prompt.
	prompts := provider.Prompts()
	assert.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "print(1)")
}

func TestCodeAnalysisTool_ExtractsFromQuery(t *testing.T) {
	provider := model.NewMockProvider()
	provider.AddResponse("コードを分析し", "分析結果")

	ca := NewCodeAnalysisTool(provider)
	result, err := ca.Call(context.Background(), core.NewTaskContext(""), map[string]any{
		"query": "Check this: ```python\nx = 1\n```",
	})
	assert.NoError(t, err)
	assert.Equal(t, "分析結果", result)
	assert.Contains(t, provider.Prompts()[0], "x = 1")
}

func TestCodeAnalysisTool_NoCode(t *testing.T) {
	ca := NewCodeAnalysisTool(model.NewMockProvider())
	result, err := ca.Call(context.Background(), core.NewTaskContext(""), map[string]any{"query": "no code at all"})
	assert.NoError(t, err)
	assert.Contains(t, result.(string), "コードが空白")
}

func TestCodeAnalysisTool_ProviderFailure(t *testing.T) {
	provider := model.NewMockProvider()
	provider.SetError(errors.New("provider down"))

	ca := NewCodeAnalysisTool(provider)
	_, err := ca.Call(context.Background(), core.NewTaskContext(""), map[string]any{
		"query": "analyze",
		"code":  "print(1)",
	})
	var toolErr *ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeAnalysisName, toolErr.Tool)
}
