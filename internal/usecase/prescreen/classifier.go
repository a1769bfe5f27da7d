package prescreen

import (
	"sort"

	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"
)

// MiddleScore resolves the underwriting "middle score" from up to three
// bureau scores. Policy (documented, affects qualification materially):
//   - three scores: the median;
//   - two scores: the LOWER of the two (conservative; the middle-score
//     convention is only exact with all three bureaus reporting);
//   - one score: that score;
//   - none: nil (no-hit).
func MiddleScore(scores []*int) *int {
	present := make([]int, 0, 3)
	for _, s := range scores {
		if s != nil {
			present = append(present, *s)
		}
	}
	if len(present) == 0 {
		return nil
	}
	sort.Ints(present)
	var mid int
	switch len(present) {
	case 1:
		mid = present[0]
	case 2:
		mid = present[0] // lower of two
	default:
		mid = present[len(present)/2]
	}
	return &mid
}

// Classify maps a middle score to a qualification tier against the
// program's thresholds (tier_1 >= t1 > tier_2 >= t2 > tier_3 >= t3, else
// below). A nil score means the bureau could not match the identity and
// yields filtered. Qualified covers tier_1 through tier_3.
func Classify(middleScore *int, p *program.Program) (lead.Tier, bool) {
	if middleScore == nil {
		return lead.TierFiltered, false
	}
	switch s := *middleScore; {
	case s >= p.Tier1Min:
		return lead.Tier1, true
	case s >= p.Tier2Min:
		return lead.Tier2, true
	case s >= p.Tier3Min:
		return lead.Tier3, true
	default:
		return lead.TierBelow, false
	}
}
