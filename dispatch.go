package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
)

// Sink is the workflow-dispatch capability the dispatcher consumes. Satisfied
// by *SinkClient; tests substitute a scripted stub.
type Sink interface {
	Dispatch(ctx context.Context, payload map[string]any) (map[string]any, int, error)
}

// Notifier is an optional side channel for high-priority alerts. A nil
// notifier is a no-op.
type Notifier interface {
	EscalationAlert(ctx context.Context, tc TicketContext)
}

// Dispatcher maps a priority onto exactly one terminal action. The mapping is
// total over the three-value enum; there is no unknown branch because the
// pipeline already normalized the priority.
type Dispatcher struct {
	sink        Sink
	oracle      Oracle
	notifier    Notifier
	fromAddress string
}

func NewDispatcher(sink Sink, oracle Oracle, notifier Notifier, fromAddress string) *Dispatcher {
	return &Dispatcher{sink: sink, oracle: oracle, notifier: notifier, fromAddress: fromAddress}
}

// Dispatch invokes the single action selected by the priority and reports the
// outcome. Sink failures are surfaced in the outcome, never panicked or
// swallowed; the caller still gets its classification result either way.
func (d *Dispatcher) Dispatch(ctx context.Context, priority Priority, tc TicketContext) ActionOutcome {
	switch priority {
	case PriorityHigh:
		if d.notifier != nil {
			d.notifier.EscalationAlert(ctx, tc)
		}
		return d.sendToSink(ctx, map[string]any{
			"source":    "AI Escalation",
			"complaint": tc.Complaint,
			"category":  string(tc.Category),
			"ticket_id": tc.TicketID,
			"reason":    "high priority complaint",
		})
	case PriorityModerate:
		return d.sendToSink(ctx, map[string]any{
			"recipient": tc.CustomerEmail,
			"from":      d.fromAddress,
			"subject":   fmt.Sprintf("Re: your support request #%d", tc.TicketID),
			"body":      fmt.Sprintf("We received your complaint: %q. Our team is looking into it and will follow up shortly.", tc.Complaint),
		})
	default: // PriorityNormal
		reply, err := d.oracle.Classify(ctx, PromptGeneral, tc.Complaint, nil)
		if err != nil {
			log.Printf("dispatcher direct reply degraded to canned text: %v", err)
			reply = "Thank you for reaching out. We have logged your message and will get back to you if any action is needed."
		}
		return ActionOutcome{Kind: NoAction, Detail: reply}
	}
}

func (d *Dispatcher) sendToSink(ctx context.Context, payload map[string]any) ActionOutcome {
	body, status, err := d.sink.Dispatch(ctx, payload)
	if err != nil {
		return ActionOutcome{Kind: ActionFailed, Detail: err.Error(), SinkBody: body}
	}
	if status >= http.StatusBadRequest {
		return ActionOutcome{
			Kind:     ActionFailed,
			Detail:   fmt.Sprintf("sink returned status %d", status),
			SinkBody: body,
		}
	}
	return ActionOutcome{Kind: ActionTaken, Detail: fmt.Sprintf("sink accepted with status %d", status), SinkBody: body}
}
