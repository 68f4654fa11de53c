package classifier

import (
	"sort"
	"unicode/utf8"

	goahocorasick "github.com/anknown/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
)

// Keyword sets for the rule-based path. Matching is substring containment on
// the lowercased text, so "lento" also hits "lentos" and "lentamente".
var (
	positiveWords = []string{
		"bueno", "excelente", "genial", "perfecto", "delicioso", "rápido",
		"amable", "recomiendo", "gracias", "feliz", "contento",
	}
	negativeWords = []string{
		"malo", "terrible", "lento", "sucio", "caro", "frío",
		"queja", "problema", "disgusto", "molesto", "horrible",
	}

	// topicWords is walked in domain.Topics order; the first topic holding the
	// highest score wins a tie.
	topicWords = map[domain.Topic][]string{
		domain.TopicCustomerService: {"servicio", "atención", "personal", "mesero", "espera", "rápido", "lento", "amable"},
		domain.TopicProductQuality:  {"comida", "café", "sabor", "delicioso", "rico", "frío", "caliente", "fresco"},
		domain.TopicPrice:           {"precio", "caro", "barato", "descuento", "promoción", "cuesta", "valor"},
		domain.TopicCleanliness:     {"limpio", "sucio", "baño", "mesa", "higiene", "limpieza"},
	}
)

const (
	summaryMaxRunes = 100
	summaryCutRunes = 97
	ellipsis        = "..."
)

// Summarize returns text unchanged when it fits in 100 characters, otherwise
// its first 97 characters followed by "...".
func Summarize(text string) string {
	if utf8.RuneCountInString(text) <= summaryMaxRunes {
		return text
	}
	return string([]rune(text)[:summaryCutRunes]) + ellipsis
}

// keywordSet counts how many distinct keywords occur in a text.
type keywordSet struct {
	machine *goahocorasick.Machine
}

func newKeywordSet(words []string) (keywordSet, error) {
	seen := make(map[string]struct{}, len(words))
	uniq := make([]string, 0, len(words))
	for _, w := range words {
		w = normalize(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		uniq = append(uniq, w)
	}
	sort.Strings(uniq)

	patterns := make([][]rune, len(uniq))
	for i, w := range uniq {
		patterns[i] = []rune(w)
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return keywordSet{}, err
	}
	return keywordSet{machine: m}, nil
}

// hits returns the number of distinct keywords contained in text.
func (k keywordSet) hits(text []rune) int {
	if len(text) == 0 {
		return 0
	}
	found := make(map[string]struct{})
	for _, term := range k.machine.MultiPatternSearch(text, false) {
		found[string(term.Word)] = struct{}{}
	}
	return len(found)
}

// normalize composes accents (NFC) and lowercases, so keywords and input agree
// on the byte form of characters like "í".
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// KeywordClassifier is the deterministic, non-suspending classification path.
// It holds no mutable state and is safe for concurrent use.
type KeywordClassifier struct {
	positive keywordSet
	negative keywordSet
	topics   []topicSet
}

type topicSet struct {
	topic domain.Topic
	set   keywordSet
}

// NewKeywordClassifier builds the keyword automata.
func NewKeywordClassifier() (*KeywordClassifier, error) {
	pos, err := newKeywordSet(positiveWords)
	if err != nil {
		return nil, err
	}
	neg, err := newKeywordSet(negativeWords)
	if err != nil {
		return nil, err
	}
	kc := &KeywordClassifier{positive: pos, negative: neg}
	for _, t := range domain.Topics {
		words, ok := topicWords[t]
		if !ok {
			continue
		}
		set, err := newKeywordSet(words)
		if err != nil {
			return nil, err
		}
		kc.topics = append(kc.topics, topicSet{topic: t, set: set})
	}
	return kc, nil
}

// MustKeywordClassifier is NewKeywordClassifier that panics on error.
func MustKeywordClassifier() *KeywordClassifier {
	kc, err := NewKeywordClassifier()
	if err != nil {
		panic(err)
	}
	return kc
}

// Classify scores text against the keyword sets.
//
//   - sentiment: positive if positive hits > negative hits, negative if the
//     reverse, neutral on a tie (including 0-0).
//   - topic: highest nonzero score, ties resolved by domain.Topics order;
//     Other when nothing matches.
//   - summary: see Summarize.
func (k *KeywordClassifier) Classify(text string) domain.Classification {
	lower := []rune(normalize(text))

	sentiment := domain.Neutral
	switch p, n := k.positive.hits(lower), k.negative.hits(lower); {
	case p > n:
		sentiment = domain.Positive
	case n > p:
		sentiment = domain.Negative
	}

	topic, best := domain.TopicOther, 0
	for _, ts := range k.topics {
		if score := ts.set.hits(lower); score > best {
			topic, best = ts.topic, score
		}
	}

	return domain.Classification{
		Sentiment: sentiment,
		Topic:     topic,
		Summary:   Summarize(text),
	}
}
