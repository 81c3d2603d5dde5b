package domain

// Passage is one retrieved unit of constitutional text. Chapter, Section and
// Article are optional; Article is stored stringified because amendment
// numbering is not always numeric.
type Passage struct {
	Title   string
	Content string
	Chapter string
	Section string
	Article string
}

// ScoredPassage pairs a passage with its relevance score. The score scale
// depends on the stage that produced it (hybrid fusion or cross-encoder);
// only relative order within one result set is meaningful.
type ScoredPassage struct {
	Passage Passage
	Score   float64
}

// Chunk is one unit produced at ingest time: a passage plus the identity
// needed to upsert it idempotently. Key is the human-readable natural key
// (slug/year/position), ID the UUID derived from it.
type Chunk struct {
	ID      string
	Key     string
	Slug    string
	Year    int
	Passage Passage
}

// Outcome classifies how a query run terminated.
type Outcome int

const (
	// OutcomeAnswered means the full pipeline ran and produced a grounded answer.
	OutcomeAnswered Outcome = iota
	// OutcomeNoResults means retrieval returned nothing; later stages never ran.
	OutcomeNoResults
	// OutcomeContextOnly means generation was rate-limited and the raw
	// retrieved context is returned in place of an answer.
	OutcomeContextOnly
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeNoResults:
		return "no_results"
	case OutcomeContextOnly:
		return "context_only"
	default:
		return "unknown"
	}
}

// Answer is the terminal result of one query run.
type Answer struct {
	Outcome  Outcome
	Text     string          // generated answer, set when Outcome is OutcomeAnswered
	Notice   string          // human-readable explanation for degraded outcomes
	Context  string          // formatted context bundle handed to (or returned instead of) generation
	Passages []ScoredPassage // final ranked passages backing the context
}
