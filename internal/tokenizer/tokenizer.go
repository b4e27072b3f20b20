// Package tokenizer turns field values into index terms. Three analyzers are
// available: raw keeps the value as one term, simple normalises to NFC,
// lower-cases and splits on non-alphanumeric boundaries, and english adds
// stop-word removal and a suffix-stripping stemmer on top of simple.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	AnalyzerRaw     = "raw"
	AnalyzerSimple  = "simple"
	AnalyzerEnglish = "english"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token is a single term and its position in the analyzed value.
type Token struct {
	Term     string
	Position int
}

// Analyzer splits a field value into tokens.
type Analyzer func(text string) []Token

// Lookup returns the analyzer registered under name. An empty name selects
// the simple analyzer.
func Lookup(name string) (Analyzer, error) {
	switch name {
	case AnalyzerRaw:
		return Raw, nil
	case AnalyzerSimple, "":
		return Simple, nil
	case AnalyzerEnglish:
		return English, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", name)
	}
}

var (
	ErrNoQueryTerm        = errors.New("query text yields no term")
	ErrMultipleQueryTerms = errors.New("query text yields more than one term")
)

// QueryTerm analyzes text the way the named analyzer indexes field values
// and returns the single term it yields, so the result compares against
// indexed terms byte for byte.
func QueryTerm(name string, text string) (string, error) {
	analyze, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return single(terms(analyze(text)))
}

// QueryPrefix prepares a partial word for prefix matching. It applies the
// analyzer's character normalisation and word splitting but neither drops
// stop words nor stems, since a partial word has no meaningful stem.
func QueryPrefix(name string, text string) (string, error) {
	if _, err := Lookup(name); err != nil {
		return "", err
	}
	if name == AnalyzerRaw {
		return single(terms(Raw(text)))
	}
	return single(split(text))
}

func single(words []string) (string, error) {
	switch len(words) {
	case 0:
		return "", ErrNoQueryTerm
	case 1:
		return words[0], nil
	default:
		return "", fmt.Errorf("%w: got %d", ErrMultipleQueryTerms, len(words))
	}
}

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Term
	}
	return out
}

// Raw emits the whole value as a single token. Empty values produce nothing.
func Raw(text string) []Token {
	if text == "" {
		return nil
	}
	return []Token{{Term: text, Position: 0}}
}

// Simple emits every lower-cased alphanumeric word.
func Simple(text string) []Token {
	words := split(text)
	tokens := make([]Token, 0, len(words))
	for i, word := range words {
		tokens = append(tokens, Token{Term: word, Position: i})
	}
	return tokens
}

// English emits stemmed words with stop-words and one-letter words removed.
func English(text string) []Token {
	words := split(text)
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

func split(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var suffixes = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem strips the first matching suffix whose remainder stays long enough.
func stem(word string) string {
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
