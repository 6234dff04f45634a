// Package risk - candidate deduplication.
//
// ─────────────────────────────────────────────────────────────────────────────
// Duplicate headlines across sources are collapsed before validation so the
// same story never triggers more than one validator call in a cycle.
// ─────────────────────────────────────────────────────────────────────────────
package risk

// DedupCandidates removes candidates whose headline was already seen earlier
// in the slice. Matching is exact and case sensitive; the first occurrence is
// kept, later ones are dropped. Returns the surviving candidates in their
// original order and the number of dropped duplicates.
func DedupCandidates(candidates []Candidate) ([]Candidate, int) {
	if len(candidates) == 0 {
		return candidates, 0
	}

	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0:0]
	dropped := 0
	for _, c := range candidates {
		if _, dup := seen[c.Headline]; dup {
			dropped++
			continue
		}
		seen[c.Headline] = struct{}{}
		out = append(out, c)
	}
	return out, dropped
}

//Personal.AI order the ending
