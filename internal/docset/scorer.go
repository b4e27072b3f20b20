package docset

// ConstScorer gives every document of its DocSet the same score.
type ConstScorer struct {
	DocSet
	score float32
}

func NewConstScorer(docs DocSet, score float32) *ConstScorer {
	return &ConstScorer{DocSet: docs, score: score}
}

func (s *ConstScorer) Score() float32 {
	return s.score
}

// EmptyScorer matches nothing.
func EmptyScorer() Scorer {
	return NewConstScorer(Empty(), 0)
}
