package main

import "sync"

// ComplaintCorpus is the append-only set of previously accepted complaint
// texts, used as the comparison corpus for duplicate detection. The duplicate
// judgment itself is an oracle call, so callers take a Snapshot, run the check
// unlocked, and Commit afterwards. Commit re-checks the exact text under the
// write lock, which closes the race for identical concurrent submissions;
// two concurrent complaints with different wording for the same issue can
// still both be accepted, a documented relaxation of strict dedup.
type ComplaintCorpus struct {
	mu   sync.RWMutex
	seen []string
}

func NewComplaintCorpus(seed []string) *ComplaintCorpus {
	c := &ComplaintCorpus{}
	c.seen = append(c.seen, seed...)
	return c
}

// Snapshot returns a copy of the corpus in insertion order.
func (c *ComplaintCorpus) Snapshot() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.seen))
	copy(out, c.seen)
	return out
}

// Commit appends the complaint unless the exact text is already present.
// Returns false when the append was skipped.
func (c *ComplaintCorpus) Commit(complaint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.seen {
		if s == complaint {
			return false
		}
	}
	c.seen = append(c.seen, complaint)
	return true
}

func (c *ComplaintCorpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}
