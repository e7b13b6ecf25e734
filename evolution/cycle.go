package evolution

import (
	"context"
	"strings"

	"github.com/seacor-ai/seacor/core"
	"github.com/seacor-ai/seacor/logging"
)

// Cycle runs the full post-query assessment sequence: evaluate, reinforce,
// record, propose. It implements the orchestrator's AssessmentCycle
// interface and is designed to run detached from the request: every failure
// is logged and contained, nothing ever reaches the caller. Proposals are
// logged only, never applied automatically.
type Cycle struct {
	assessor *Assessor
	tracker  *Tracker
	logger   logging.Logger
}

// NewCycle constructs a Cycle. The tracker may be nil, in which case runs are
// assessed but not recorded.
func NewCycle(assessor *Assessor, tracker *Tracker, logger logging.Logger) *Cycle {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Cycle{assessor: assessor, tracker: tracker, logger: logger}
}

// Run executes one assessment cycle for a finished query.
func (c *Cycle) Run(ctx context.Context, prompt string, plan *core.ExecutionPlan, results []string) {
	evaluation, err := c.assessor.Assess(ctx, plan, results)
	if err != nil {
		c.logger.Error("self-assessment failed", "error", err)
		return
	}

	improvements, err := c.assessor.Reinforce(ctx, evaluation)
	if err != nil {
		c.logger.Error("reinforcement failed", "error", err)
		return
	}

	if c.tracker != nil {
		err := c.tracker.Record(Entry{
			Prompt:       prompt,
			Plan:         plan,
			Results:      results,
			Evaluation:   evaluation,
			Improvements: improvements,
		})
		if err != nil {
			c.logger.Error("history record failed", "error", err)
		}
	}

	proposal, err := c.assessor.Propose(ctx, prompt, results, evaluation, improvements)
	if err != nil {
		c.logger.Error("evolution proposal failed", "error", err)
		return
	}
	if strings.EqualFold(proposal, NoChange) {
		c.logger.Info("no evolution proposed")
		return
	}
	c.logger.Info("evolution proposed", "proposal", proposal)
}
