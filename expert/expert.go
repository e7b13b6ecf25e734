package expert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/internal/util"
	"github.com/seacor-ai/seacor/logging"
	"github.com/seacor-ai/seacor/tool"
)

// Expert is a capability-tagged actor that can accept or decline a task and
// execute it via its bound tools. The capability set starts as the
// definition's expertise tags and may grow via Evolve; it is always a
// superset of the definition's tags. All exported methods are safe for
// concurrent use.
type Expert struct {
	mu           sync.RWMutex
	def          core.ExpertDefinition
	capabilities []core.Capability
	tools        map[string]tool.Tool
	toolOrder    []string
	logger       logging.Logger
}

// New constructs an Expert from its definition and resolved tools. The slice
// order of tools establishes the binding order used during task execution.
// A nil logger is substituted with a NoOpLogger.
func New(def core.ExpertDefinition, tools []tool.Tool, logger logging.Logger) *Expert {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	e := &Expert{
		def:          def,
		capabilities: core.NormalizeCapabilities(def.Expertise),
		tools:        make(map[string]tool.Tool, len(tools)),
		logger:       logger,
	}
	for _, t := range tools {
		if _, ok := e.tools[t.Name()]; ok {
			continue
		}
		e.tools[t.Name()] = t
		e.toolOrder = append(e.toolOrder, t.Name())
	}

	logger.Info("expert initialized", "expert", def.Name, "expertise", e.capabilities, "tools", e.toolOrder)
	return e
}

// Name returns the expert's stable identity.
func (e *Expert) Name() string { return e.def.Name }

// Definition returns the immutable definition this expert was built from.
func (e *Expert) Definition() core.ExpertDefinition { return e.def }

// Capabilities returns a copy of the live capability set in first-seen order.
func (e *Expert) Capabilities() []core.Capability {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]core.Capability, len(e.capabilities))
	copy(out, e.capabilities)
	return out
}

// ToolNames returns the bound tool names in binding order.
func (e *Expert) ToolNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.toolOrder))
	copy(out, e.toolOrder)
	return out
}

// CanHandle reports whether at least one capability matches the task text.
func (e *Expert) CanHandle(taskText string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.capabilities {
		if c.Matches(taskText) {
			return true
		}
	}
	return false
}

// Score counts how many capabilities match the task text. Used by the
// registry's best-match selection.
func (e *Expert) Score(taskText string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	score := 0
	for _, c := range e.capabilities {
		if c.Matches(taskText) {
			score++
		}
	}
	return score
}

// Evolve adds a capability to the live set and optionally binds a new tool
// under its name. Safe against repeated calls with the same capability.
// Callers holding the expert in a Registry must Reindex it afterwards so the
// capability indices stay consistent.
func (e *Expert) Evolve(capability core.Capability, newTool tool.Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if capability != "" && !core.ContainsCapability(e.capabilities, capability) {
		e.capabilities = append(e.capabilities, capability)
	}
	if newTool != nil {
		if _, ok := e.tools[newTool.Name()]; !ok {
			e.toolOrder = append(e.toolOrder, newTool.Name())
		}
		e.tools[newTool.Name()] = newTool
	}

	e.logger.Info("expert evolved", "expert", e.def.Name, "capability", capability, "tools", e.toolOrder)
}

// ExecuteTask runs the task through the expert's bound tools and returns the
// combined labeled output. The second return value is false when the expert
// declines the task (no matching capability, no applicable tool, or no tool
// output); a decline is a routing signal, not an error. Individual tool
// failures are contained and rendered as labeled error fragments in the
// result.
func (e *Expert) ExecuteTask(ctx context.Context, taskText string, taskCtx *core.TaskContext) (string, bool) {
	if taskCtx == nil {
		taskCtx = core.NewTaskContext("")
	}

	if !e.CanHandle(taskText) {
		e.logger.Debug("task declined", "expert", e.def.Name, "task", taskText)
		return "", false
	}

	selected := e.selectTools(taskText, taskCtx.OriginalQuery)
	if len(selected) == 0 {
		e.logger.Debug("no applicable tools", "expert", e.def.Name, "task", taskText)
		return "", false
	}

	var results []string
	for _, t := range selected {
		args := map[string]any{"query": taskText}

		if t.Name() == tool.CodeAnalysisName {
			blocks := util.ExtractCodeBlocks(taskCtx.OriginalQuery)
			if len(blocks) == 0 {
				e.logger.Debug("no code block found, skipping tool", "expert", e.def.Name, "tool", t.Name())
				continue
			}
			args["code"] = blocks[0]
			args["language"] = "python"
		}

		out, err := t.Call(ctx, taskCtx, args)
		if err != nil {
			e.logger.Error("tool execution failed", "expert", e.def.Name, "tool", t.Name(), "error", err)
			results = append(results, fmt.Sprintf("%s: エラーが発生しました - %s", t.Name(), toolErrorDetail(err)))
			continue
		}
		if out == nil {
			continue
		}
		if text := fmt.Sprintf("%v", out); text != "" {
			results = append(results, fmt.Sprintf("%s: %s", t.Name(), text))
		}
	}

	if len(results) == 0 {
		return "", false
	}
	return strings.Join(results, "\n\n"), true
}

// selectTools picks the bound tools applicable to this task in binding
// order. The code analysis tool is only selected when the original query
// contains a fenced code block or the task text mentions code.
func (e *Expert) selectTools(taskText, originalQuery string) []tool.Tool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lowerTask := strings.ToLower(taskText)
	var selected []tool.Tool
	for _, name := range e.toolOrder {
		t := e.tools[name]
		if name == tool.CodeAnalysisName {
			if strings.Contains(originalQuery, "```") ||
				strings.Contains(lowerTask, "code") ||
				strings.Contains(lowerTask, "コード") {
				selected = append(selected, t)
			}
			continue
		}
		selected = append(selected, t)
	}
	return selected
}

// toolErrorDetail extracts the human-readable message from a tool failure,
// unwrapping ToolError so the labeled fragment carries the detail rather
// than the full error envelope.
func toolErrorDetail(err error) string {
	var toolErr *tool.ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Message
	}
	return err.Error()
}
