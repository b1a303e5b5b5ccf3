package ranker

// singleCardConfidence is returned when only one card was ranked: no
// separation exists to measure, but a sole candidate is a strong pick.
const singleCardConfidence = 0.8

// SeparationConfidence measures how decisively the top card beat the
// runner-up, normalized by the top score. Clamped to [0.5, 0.95]: even a
// dead heat carries coin-flip-or-better confidence, and the ceiling leaves
// room for doubt.
func SeparationConfidence(entries []scoredEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	if len(entries) == 1 {
		return singleCardConfidence
	}

	best := entries[0].score
	second := entries[1].score
	if best <= 0 {
		return 0.5
	}

	confidence := (best-second)/best + 0.5
	if confidence > 0.95 {
		return 0.95
	}
	if confidence < 0.5 {
		return 0.5
	}
	return confidence
}

// MidpointConfidence rates a standalone score by its distance from the
// 0-100 midpoint: extreme scores in either direction are decisive, scores
// near 50 are ambiguous.
func MidpointConfidence(score float64) float64 {
	distance := score - 50
	if distance < 0 {
		distance = -distance
	}
	confidence := distance / 50
	if confidence > 1 {
		return 1
	}
	return confidence
}
