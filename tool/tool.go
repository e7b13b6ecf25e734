// Package tool implements the tool subsystem that lets experts invoke
// structured capabilities (LLM-backed lookups, code analysis, computations)
// with schema validated arguments, consistent error handling and rich
// metadata.
package tool

import (
	"context"
	"fmt"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/internal/util"
)

// Tool defines the interface for extending expert capabilities with external
// functions.
//
// Tools are bound to experts by name and invoked in binding order during task
// execution. A tool failure is contained by the calling expert (rendered as a
// labeled error fragment in the task result), so implementations should
// return descriptive errors rather than panic.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Be safe for concurrent use; one tool instance is shared across experts
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool. taskCtx carries per-task data such as the
	// original query; args are parsed parameters validated against the
	// tool's schema.
	Call(ctx context.Context, taskCtx *core.TaskContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
