package voiceprint

// Identify answers "who is this voice": it scans all records whose ModelTag
// equals modelTag, scores each against the query embedding with Cosine, and
// returns the best match if its score reaches threshold.
//
// Outcomes:
//
//   - (match, nil): the best candidate scored >= threshold.
//   - (nil, nil): candidates existed but none reached threshold — a
//     legitimate negative, not an error.
//   - (nil, ErrNoCandidates): no record carries modelTag. Diagnosed
//     separately from a miss because it usually means the store is empty
//     or enrolled with a different extractor model.
//   - (nil, ErrInvalidThreshold): threshold outside [-1, 1].
//   - (nil, ErrDimensionMismatch / ErrDegenerateVector): from Cosine.
//
// When several candidates share the identical maximum score, the one with
// the lexicographically smallest SpeakerID wins, so results are
// reproducible across runs and iteration orders.
func (s *Store) Identify(query []float32, modelTag string, threshold float32) (*Match, error) {
	if threshold < -1 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best      *Record
		bestScore float32
		found     bool
	)
	for _, id := range s.order {
		rec := s.records[id]
		if rec.ModelTag != modelTag {
			continue
		}
		found = true

		score, err := Cosine(query, rec.Embedding)
		if err != nil {
			return nil, err
		}
		if best == nil || score > bestScore ||
			(score == bestScore && rec.SpeakerID < best.SpeakerID) {
			best = rec
			bestScore = score
		}
	}

	if !found {
		return nil, ErrNoCandidates
	}
	if bestScore < threshold {
		return nil, nil
	}
	return &Match{
		SpeakerID:   best.SpeakerID,
		SpeakerName: best.SpeakerName,
		Score:       bestScore,
	}, nil
}
