package classify

import (
	"unicode/utf8"

	"github.com/ppiankov/govsift/internal/model"
	"go.uber.org/zap"
)

// Rule is one classification heuristic. Match returns zero or more signals
// for a record and never mutates it.
type Rule interface {
	Name() string
	Match(rec *model.NormalizedRecord) []model.Signal
}

// Classifier runs the ordered rule set over normalized records: the lexical
// pass first, the disambiguation pass over its hits, then the independent
// rules (citation, platform). Adding a source or keyword set means
// registering a rule, not modifying existing ones.
type Classifier struct {
	lexical *LexicalRule
	refiner *DisambiguationRule
	rules   []Rule
	log     *zap.Logger
}

// NewClassifier creates a classifier with the built-in rule set
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	lexicon := DefaultLexicon()
	return &Classifier{
		lexical: NewLexicalRule(lexicon),
		refiner: NewDisambiguationRule(lexicon),
		rules: []Rule{
			NewCitationRule(DefaultPolicyVocabulary()),
			NewPlatformRule(),
		},
		log: logger,
	}
}

// Register adds an independent rule to the registry
func (c *Classifier) Register(rule Rule) {
	c.rules = append(c.rules, rule)
}

// Classify produces the signal set for one record. Malformed text fields
// are skipped (logged, never fatal); classification of the remaining
// fields proceeds. Aggregation of results happens at the reporting
// boundary, never here.
func (c *Classifier) Classify(rec *model.NormalizedRecord) []model.Signal {
	clean := c.classifiable(rec)

	hits := c.lexical.Match(clean)
	signals := c.refiner.Refine(clean, hits)
	for _, rule := range c.rules {
		signals = append(signals, rule.Match(clean)...)
	}

	return resolveTies(signals)
}

// classifiable drops text fields the rules cannot safely scan
// (invalid UTF-8, embedded NUL bytes)
func (c *Classifier) classifiable(rec *model.NormalizedRecord) *model.NormalizedRecord {
	kept := make([]model.TextField, 0, len(rec.TextFields))
	for _, f := range rec.TextFields {
		if !utf8.ValidString(f.Text) || hasNUL(f.Text) {
			c.log.Warn("unclassifiable field skipped",
				zap.String("entity", rec.EntityID),
				zap.String("field", f.Name))
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == len(rec.TextFields) {
		return rec
	}
	clean := *rec
	clean.TextFields = kept
	return &clean
}

// resolveTies applies the tie-break policy: when several signals cover the
// same span, the highest-confidence result wins; ties between
// equal-confidence signals of different kinds are all retained.
func resolveTies(signals []model.Signal) []model.Signal {
	best := make(map[model.Span]int)
	for _, s := range signals {
		if rank, ok := best[s.MatchedSpan]; !ok || s.Confidence.Rank() > rank {
			best[s.MatchedSpan] = s.Confidence.Rank()
		}
	}

	out := make([]model.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Confidence.Rank() == best[s.MatchedSpan] {
			out = append(out, s)
		}
	}
	return out
}

func hasNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return true
		}
	}
	return false
}
