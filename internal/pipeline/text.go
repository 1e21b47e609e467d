package pipeline

import (
	"sort"
	"strings"
	"unicode"
)

// NormalizeQuestion lowercases s, drops every rune that is not a letter,
// digit, or whitespace, and collapses whitespace runs to a single space.
func NormalizeQuestion(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// Levenshtein returns the edit distance between a and b counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns 1 - Levenshtein(a, b) / max(len(a), len(b)) in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1.0
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// phraseRewriter replaces whole-word phrases in normalized text.
type phraseRewriter struct {
	// rules sorted longest phrase first, then alphabetically.
	rules []phraseRule
}

type phraseRule struct {
	from []string
	to   []string
}

func newPhraseRewriter(aliases map[string]string) *phraseRewriter {
	if len(aliases) == 0 {
		return nil
	}
	rw := &phraseRewriter{rules: make([]phraseRule, 0, len(aliases))}
	for from, to := range aliases {
		f := strings.Fields(NormalizeQuestion(from))
		if len(f) == 0 {
			continue
		}
		rw.rules = append(rw.rules, phraseRule{
			from: f,
			to:   strings.Fields(NormalizeQuestion(to)),
		})
	}
	sort.Slice(rw.rules, func(i, j int) bool {
		if len(rw.rules[i].from) != len(rw.rules[j].from) {
			return len(rw.rules[i].from) > len(rw.rules[j].from)
		}
		return strings.Join(rw.rules[i].from, " ") < strings.Join(rw.rules[j].from, " ")
	})
	return rw
}

// Rewrite applies the rules left to right in a single pass. Replaced words
// are not rewritten again.
func (rw *phraseRewriter) Rewrite(normalized string) string {
	if rw == nil || normalized == "" {
		return normalized
	}
	words := strings.Fields(normalized)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for _, r := range rw.rules {
			if hasPhraseAt(words, i, r.from) {
				out = append(out, r.to...)
				i += len(r.from)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

func hasPhraseAt(words []string, i int, phrase []string) bool {
	if i+len(phrase) > len(words) {
		return false
	}
	for k, w := range phrase {
		if words[i+k] != w {
			return false
		}
	}
	return true
}
