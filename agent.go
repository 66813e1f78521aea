package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// maxAgentIterations bounds the classify-then-act control loop.
const maxAgentIterations = 5

var (
	// ErrBadInstruction marks an oracle action instruction that could not be
	// parsed into a known action. Retried by the loop.
	ErrBadInstruction = errors.New("malformed action instruction")
	// ErrIterationBudget is terminal: the loop gave up without a valid action.
	ErrIterationBudget = errors.New("agent iteration budget exceeded")
)

type agentAction string

const (
	actionEscalate agentAction = "escalate"
	actionReply    agentAction = "reply"
	actionLog      agentAction = "log"
)

type actionInstruction struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// AgentResult is the terminal outcome of one agent loop run.
type AgentResult struct {
	Priority Priority
	Action   agentAction
	Outcome  ActionOutcome
	Response string
}

// AgentLoop is the bounded controller for the agent dispatch mode: classify
// priority, obtain a typed action instruction from the oracle, then invoke
// exactly one dispatcher action. Only malformed instructions are retried;
// network-level failures from the oracle or the sink surface immediately.
type AgentLoop struct {
	pipeline   *Pipeline
	dispatcher *Dispatcher
	oracle     Oracle
}

func NewAgentLoop(pipeline *Pipeline, dispatcher *Dispatcher, oracle Oracle) *AgentLoop {
	return &AgentLoop{pipeline: pipeline, dispatcher: dispatcher, oracle: oracle}
}

func (a *AgentLoop) Run(ctx context.Context, tc TicketContext) (AgentResult, error) {
	var lastErr error

	for i := 1; i <= maxAgentIterations; i++ {
		priority := a.pipeline.ClassifyPriority(ctx, tc.Complaint)

		raw, err := a.oracle.Classify(ctx, PromptAction, tc.Complaint, nil)
		if err != nil {
			// Oracle unreachable or timed out: not a retryable condition.
			return AgentResult{}, err
		}

		action, reason, parseErr := parseActionInstruction(raw)
		if parseErr != nil {
			lastErr = parseErr
			log.Printf("agent iteration=%d retrying: %v", i, parseErr)
			continue
		}

		outcome := a.dispatcher.Dispatch(ctx, priority, tc)
		result := AgentResult{
			Priority: priority,
			Action:   action,
			Outcome:  outcome,
			Response: composeAgentResponse(action, reason, outcome),
		}
		if outcome.Kind == ActionFailed {
			return result, fmt.Errorf("dispatch failed: %s", outcome.Detail)
		}
		log.Printf("agent done iteration=%d action=%s priority=%s outcome=%s", i, action, priority, outcome.Kind)
		return result, nil
	}

	return AgentResult{}, fmt.Errorf("%w: %d iterations, last error: %v", ErrIterationBudget, maxAgentIterations, lastErr)
}

func parseActionInstruction(raw string) (agentAction, string, error) {
	var inst actionInstruction
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return "", "", fmt.Errorf("%w: %v (instruction: %.120s)", ErrBadInstruction, err, raw)
	}
	switch agentAction(strings.ToLower(strings.TrimSpace(inst.Action))) {
	case actionEscalate:
		return actionEscalate, inst.Reason, nil
	case actionReply:
		return actionReply, inst.Reason, nil
	case actionLog:
		return actionLog, inst.Reason, nil
	default:
		return "", "", fmt.Errorf("%w: unknown action %q", ErrBadInstruction, inst.Action)
	}
}

func composeAgentResponse(action agentAction, reason string, outcome ActionOutcome) string {
	switch outcome.Kind {
	case NoAction:
		return outcome.Detail
	case ActionTaken:
		if action == actionEscalate {
			return fmt.Sprintf("Your issue has been escalated to our support team (%s). Someone will reach out shortly.", reason)
		}
		return fmt.Sprintf("A reply has been sent to your email address (%s).", reason)
	default:
		return fmt.Sprintf("We classified your issue but the follow-up action could not be completed: %s", outcome.Detail)
	}
}
