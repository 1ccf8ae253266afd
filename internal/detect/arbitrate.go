package detect

import "github.com/cloakward-ai/cloakward/internal/entity"

// overlapTolerance is the fraction of the smaller span that two spans may
// share before the candidate is considered a duplicate. The slack absorbs
// small boundary disagreements between detectors (NER including trailing
// punctuation, regexes clipping a separator) while keeping genuinely
// adjacent entities distinct. Empirically tuned; do not re-derive.
const overlapTolerance = 0.2

// overlapsAccepted reports whether the candidate range shares more than the
// tolerated fraction of the smaller span with any accepted span. Candidates
// that overlap are rejected outright; there is no merging or trimming.
func overlapsAccepted(start, end int, accepted []entity.Span) bool {
	for _, s := range accepted {
		os, oe := start, end
		if s.Start > os {
			os = s.Start
		}
		if s.End < oe {
			oe = s.End
		}
		if os >= oe {
			continue
		}
		smaller := end - start
		if l := s.End - s.Start; l < smaller {
			smaller = l
		}
		if smaller <= 0 {
			continue
		}
		if float64(oe-os)/float64(smaller) > overlapTolerance {
			return true
		}
	}
	return false
}
