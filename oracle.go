package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultOracleModel = "claude-sonnet-4-5-20250929"

// Oracle failure kinds. Callers that can degrade (the pipeline) substitute a
// conservative default; callers that cannot (the agent loop) surface these.
var (
	ErrOracleTimeout     = errors.New("oracle timeout")
	ErrOracleUnreachable = errors.New("oracle unreachable")
	ErrOracleBadResponse = errors.New("oracle bad response")
)

// PromptKind selects which classification question is put to the oracle.
type PromptKind int

const (
	PromptDuplicate PromptKind = iota
	PromptPriority
	PromptCategory
	PromptGeneral
	PromptAction
)

// OracleClient wraps one text-completion round trip against the classification
// oracle. It issues exactly one request per call and never retries; answer
// validation belongs to the caller.
type OracleClient struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

func NewOracleClient(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *OracleClient {
	if model == "" {
		model = defaultOracleModel
	}
	if timeout <= 0 {
		timeout = externalHTTPTimeout
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OracleClient{
		client:  anthropic.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

func (o *OracleClient) Model() string { return o.model }

// Classify builds the prompt for the given kind and returns the oracle's
// trimmed answer. The past corpus is only consulted for PromptDuplicate.
func (o *OracleClient) Classify(ctx context.Context, kind PromptKind, text string, past []string) (string, error) {
	prompt := buildPrompt(kind, text, past)

	// Every oracle call carries its own deadline so a stalled upstream cannot
	// pin a request worker past the configured bound.
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	message, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Printf("oracle error kind=%d: %v", kind, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrOracleTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrOracleUnreachable, err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			answer := stripFences(block.Text)
			log.Printf("oracle answer kind=%d model=%s size=%d tokens_in=%d tokens_out=%d",
				kind, o.model, len(answer), message.Usage.InputTokens, message.Usage.OutputTokens)
			return answer, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", ErrOracleBadResponse)
}

func buildPrompt(kind PromptKind, text string, past []string) string {
	switch kind {
	case PromptDuplicate:
		var pastLines strings.Builder
		for _, p := range past {
			pastLines.WriteString("- " + p + "\n")
		}
		return fmt.Sprintf(`Analyze if the 'New Complaint' describes the same core issue as any of the 'Past Complaints'.
Past Complaints:
%s
New Complaint: %q
Is the new complaint a duplicate? Answer only with 'Yes' or 'No'.`, pastLines.String(), text)
	case PromptPriority:
		return fmt.Sprintf("Classify the priority of this complaint as 'High', 'Moderate' or 'Normal'. Answer only with the single word 'High', 'Moderate' or 'Normal'. Complaint: %q", text)
	case PromptCategory:
		return fmt.Sprintf("Categorize this complaint into one of the following types: Billing, Technical Issue, Product Query, or Feedback. Answer only with one of these four options. Complaint: %q", text)
	case PromptAction:
		return fmt.Sprintf(`You route a customer support query to exactly one action.
Actions:
- escalate: urgent issue needing a human workflow
- reply: issue that warrants an email reply
- log: informational, no outward action

Respond with JSON only (no markdown):
{"action": "escalate", "reason": "..."}

Query: %q`, text)
	default:
		return fmt.Sprintf("You are a customer support assistant. Write a short, professional reply to this customer query: %q", text)
	}
}

// stripFences trims the answer and removes a wrapping markdown code fence if
// the model added one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
