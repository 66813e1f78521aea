package main

import (
	"context"
	"log"
	"strings"
)

// Oracle is the classification capability the pipeline consumes. Satisfied by
// *OracleClient; tests substitute a scripted stub.
type Oracle interface {
	Classify(ctx context.Context, kind PromptKind, text string, past []string) (string, error)
	Model() string
}

// Pipeline sequences the per-complaint classification state machine:
// duplicate check, then priority, then category, then the corpus commit.
// Oracle failures and out-of-domain answers degrade to conservative defaults
// so a flaky oracle never aborts a ticket.
type Pipeline struct {
	oracle    Oracle
	corpus    *ComplaintCorpus
	overrides *Overrides
}

func NewPipeline(oracle Oracle, corpus *ComplaintCorpus, overrides *Overrides) *Pipeline {
	return &Pipeline{oracle: oracle, corpus: corpus, overrides: overrides}
}

// CheckDuplicate asks the oracle whether the complaint matches the semantic
// intent of anything already in the corpus. Only an exact affirmative token
// (case-insensitive "Yes") counts; errors and ambiguous answers default to
// not-duplicate.
func (p *Pipeline) CheckDuplicate(ctx context.Context, complaint string) bool {
	past := p.corpus.Snapshot()
	if len(past) == 0 {
		return false
	}
	answer, err := p.oracle.Classify(ctx, PromptDuplicate, complaint, past)
	if err != nil {
		log.Printf("pipeline duplicate check degraded to 'not duplicate': %v", err)
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// ClassifyPriority buckets the complaint, falling back to PriorityNormal when
// the oracle fails or answers outside the enum.
func (p *Pipeline) ClassifyPriority(ctx context.Context, complaint string) Priority {
	answer, err := p.oracle.Classify(ctx, PromptPriority, complaint, nil)
	if err != nil {
		log.Printf("pipeline priority degraded to %s: %v", PriorityNormal, err)
		return PriorityNormal
	}
	priority, ok := ParsePriority(answer)
	if !ok {
		log.Printf("pipeline priority answer %q out of domain, using %s", answer, PriorityNormal)
		return PriorityNormal
	}
	return priority
}

// Categorize buckets the complaint, falling back to CategoryProductQuery when
// the oracle fails or answers outside the enum.
func (p *Pipeline) Categorize(ctx context.Context, complaint string) Category {
	answer, err := p.oracle.Classify(ctx, PromptCategory, complaint, nil)
	if err != nil {
		log.Printf("pipeline category degraded to %s: %v", CategoryProductQuery, err)
		return CategoryProductQuery
	}
	category, ok := ParseCategory(answer)
	if !ok {
		log.Printf("pipeline category answer %q out of domain, using %s", answer, CategoryProductQuery)
		return CategoryProductQuery
	}
	return category
}

// Process runs the full state machine for one complaint. Duplicates
// short-circuit before any classification and are never committed to the
// corpus; empty or whitespace-only text goes through unchanged.
func (p *Pipeline) Process(ctx context.Context, complaint string) TriageResult {
	if p.CheckDuplicate(ctx, complaint) {
		log.Printf("pipeline duplicate detected size=%d", len(complaint))
		return TriageResult{Status: StatusDuplicate}
	}

	result := TriageResult{
		Status:   StatusProcessed,
		Priority: p.ClassifyPriority(ctx, complaint),
		Category: p.Categorize(ctx, complaint),
	}
	result = p.overrides.Apply(complaint, result)

	// Commit point: duplicates never reach here.
	p.corpus.Commit(complaint)

	log.Printf("pipeline processed priority=%s category=%s corpus=%d", result.Priority, result.Category, p.corpus.Len())
	return result
}
