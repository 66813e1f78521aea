package main

import (
	"context"
	"testing"
)

// stubOracle scripts answers per prompt kind. Answers are consumed in order;
// the last one repeats once the script runs out.
type stubOracle struct {
	answers  map[PromptKind][]string
	errs     map[PromptKind]error
	calls    map[PromptKind]int
	lastPast []string
}

func newStubOracle() *stubOracle {
	return &stubOracle{
		answers: map[PromptKind][]string{},
		errs:    map[PromptKind]error{},
		calls:   map[PromptKind]int{},
	}
}

func (s *stubOracle) Classify(_ context.Context, kind PromptKind, _ string, past []string) (string, error) {
	n := s.calls[kind]
	s.calls[kind] = n + 1
	if kind == PromptDuplicate {
		s.lastPast = past
	}
	if err := s.errs[kind]; err != nil {
		return "", err
	}
	script := s.answers[kind]
	if len(script) == 0 {
		return "", nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n], nil
}

func (s *stubOracle) Model() string { return "stub-model" }

func TestPipelineDuplicateShortCircuits(t *testing.T) {
	// Scenario: new complaint matches a past one semantically.
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"Yes"}
	corpus := NewComplaintCorpus([]string{"App crashes when opening dashboard"})
	pipeline := NewPipeline(oracle, corpus, nil)

	result := pipeline.Process(context.Background(), "App crashes on login")

	if result.Status != StatusDuplicate {
		t.Fatalf("expected duplicate status, got %s", result.Status)
	}
	if result.Priority != "" || result.Category != "" {
		t.Fatalf("duplicate result must carry no classification, got %+v", result)
	}
	if corpus.Len() != 1 {
		t.Fatalf("duplicate must not be committed, corpus length %d", corpus.Len())
	}
	if oracle.calls[PromptPriority] != 0 || oracle.calls[PromptCategory] != 0 {
		t.Fatal("duplicate must short-circuit before priority/category classification")
	}
	if len(oracle.lastPast) != 1 || oracle.lastPast[0] != "App crashes when opening dashboard" {
		t.Fatalf("duplicate check must compare against the existing corpus, got %v", oracle.lastPast)
	}
}

func TestPipelineProcessedCommitsAndClassifies(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"No"}
	oracle.answers[PromptPriority] = []string{"High"}
	oracle.answers[PromptCategory] = []string{"Billing"}
	corpus := NewComplaintCorpus([]string{"App crashes when opening dashboard"})
	pipeline := NewPipeline(oracle, corpus, nil)

	result := pipeline.Process(context.Background(), "Refund never received")

	if result.Status != StatusProcessed {
		t.Fatalf("expected processed status, got %s", result.Status)
	}
	if result.Priority != PriorityHigh {
		t.Fatalf("expected High priority, got %s", result.Priority)
	}
	if result.Category != CategoryBilling {
		t.Fatalf("expected Billing category, got %s", result.Category)
	}
	if corpus.Len() != 2 {
		t.Fatalf("expected commit to grow corpus to 2, got %d", corpus.Len())
	}
}

func TestPipelineDuplicateDetectionIdempotence(t *testing.T) {
	// Deterministic oracle: "No" the first time, "Yes" once the complaint is
	// in the corpus. Same text twice: processed then duplicate, corpus grows
	// by exactly one.
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"No", "Yes"}
	oracle.answers[PromptPriority] = []string{"Normal"}
	oracle.answers[PromptCategory] = []string{"Feedback"}
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, nil)

	first := pipeline.Process(context.Background(), "Refund never received")
	second := pipeline.Process(context.Background(), "Refund never received")

	if first.Status != StatusProcessed {
		t.Fatalf("first submission should be processed, got %s", first.Status)
	}
	if second.Status != StatusDuplicate {
		t.Fatalf("second submission should be duplicate, got %s", second.Status)
	}
	if corpus.Len() != 2 {
		t.Fatalf("corpus should grow by exactly one entry, got %d", corpus.Len())
	}
}

func TestPipelineOracleFailureFallsBack(t *testing.T) {
	oracle := newStubOracle()
	oracle.errs[PromptDuplicate] = ErrOracleUnreachable
	oracle.errs[PromptPriority] = ErrOracleTimeout
	oracle.errs[PromptCategory] = ErrOracleBadResponse
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, nil)

	result := pipeline.Process(context.Background(), "Anything at all")

	if result.Status != StatusProcessed {
		t.Fatalf("oracle failure must not abort processing, got %s", result.Status)
	}
	if result.Priority != PriorityNormal {
		t.Fatalf("expected fallback priority Normal, got %s", result.Priority)
	}
	if result.Category != CategoryProductQuery {
		t.Fatalf("expected fallback category Product Query, got %s", result.Category)
	}
	if corpus.Len() != 2 {
		t.Fatalf("degraded processing must still commit, got corpus length %d", corpus.Len())
	}
}

func TestPipelineAmbiguousAnswersFallBack(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"Yes, it looks like a duplicate"}
	oracle.answers[PromptPriority] = []string{"Urgent!!"}
	oracle.answers[PromptCategory] = []string{"Complaints about billing"}
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, nil)

	result := pipeline.Process(context.Background(), "Some complaint")

	// Only the exact affirmative token counts as a duplicate.
	if result.Status != StatusProcessed {
		t.Fatalf("non-exact affirmative must not be a duplicate, got %s", result.Status)
	}
	if result.Priority != PriorityNormal {
		t.Fatalf("expected fallback priority Normal, got %s", result.Priority)
	}
	if result.Category != CategoryProductQuery {
		t.Fatalf("expected fallback category Product Query, got %s", result.Category)
	}
}

func TestPipelineCaseInsensitiveAffirmative(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"  yes  "}
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, nil)

	if result := pipeline.Process(context.Background(), "same thing again"); result.Status != StatusDuplicate {
		t.Fatalf("case-insensitive 'yes' must count as duplicate, got %s", result.Status)
	}
}

func TestPipelineEmptyCorpusSkipsOracle(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptPriority] = []string{"Normal"}
	oracle.answers[PromptCategory] = []string{"Feedback"}
	pipeline := NewPipeline(oracle, NewComplaintCorpus(nil), nil)

	result := pipeline.Process(context.Background(), "first ever complaint")

	if result.Status != StatusProcessed {
		t.Fatalf("expected processed, got %s", result.Status)
	}
	if oracle.calls[PromptDuplicate] != 0 {
		t.Fatal("nothing to compare against, duplicate check should not hit the oracle")
	}
}

func TestPipelineEmptyComplaintGoesThrough(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"garbled"}
	oracle.answers[PromptPriority] = []string{""}
	oracle.answers[PromptCategory] = []string{""}
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, nil)

	result := pipeline.Process(context.Background(), "   ")

	if result.Status != StatusProcessed {
		t.Fatalf("whitespace complaint must go through the pipeline, got %s", result.Status)
	}
	if result.Priority != PriorityNormal || result.Category != CategoryProductQuery {
		t.Fatalf("expected fallback classification, got %+v", result)
	}
}

func TestPipelineAppliesOverrides(t *testing.T) {
	oracle := newStubOracle()
	oracle.answers[PromptDuplicate] = []string{"No"}
	oracle.answers[PromptPriority] = []string{"Normal"}
	oracle.answers[PromptCategory] = []string{"Feedback"}
	overrides := &Overrides{
		CategoryTerms: []CategoryTerm{{Phrase: "charged twice", Category: "Billing"}},
		PriorityHints: []PriorityHint{{Phrase: "charged twice", Priority: "High"}},
	}
	corpus := NewComplaintCorpus([]string{"seed complaint"})
	pipeline := NewPipeline(oracle, corpus, overrides)

	result := pipeline.Process(context.Background(), "I was charged twice this month")

	if result.Category != CategoryBilling || result.Priority != PriorityHigh {
		t.Fatalf("expected overrides to pin Billing/High, got %+v", result)
	}
}
