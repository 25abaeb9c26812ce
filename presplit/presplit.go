// Package presplit segments text with GPT-style regular expressions before
// byte-pair training, so that learned merges never cross a word, number or
// punctuation boundary.
package presplit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ollama/minibpe/bpe"
	"github.com/ollama/minibpe/envconfig"
)

const (
	GPT2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

	// GPT4Pattern is the cl100k split pattern. regexp2 has no possessive
	// quantifiers so they are written as atomic groups.
	GPT4Pattern = `'(?i:[sdmt]|ll|ve|re)|(?>[^\r\n\p{L}\p{N}]?)\p{L}+|\p{N}{1,3}| ?(?>[^\s\p{L}\p{N}]+)[\r\n]*|\s*[\r\n]|\s+(?!\S)|\s+`
)

var ErrInvalidPattern = errors.New("invalid split pattern")

var named = map[string]string{
	"gpt2": GPT2Pattern,
	"gpt4": GPT4Pattern,
}

// Regexp splits text into the successive matches of a pattern.
type Regexp struct {
	re *regexp2.Regexp
}

var _ bpe.Splitter = (*Regexp)(nil)

// Compile compiles pattern. Matching gives up after MINIBPE_REGEX_TIMEOUT
// when it is set.
func Compile(pattern string) (*Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile split pattern: %w", err)
	}

	if timeout := envconfig.RegexTimeout(); timeout > 0 {
		re.MatchTimeout = timeout
	}

	return &Regexp{re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

func (r *Regexp) Pattern() string {
	return r.re.String()
}

// Split returns every non-empty match in order. Text between matches is
// dropped, which the GPT patterns never leave.
func (r *Regexp) Split(text string) ([]string, error) {
	var parts []string
	m, err := r.re.FindStringMatch(text)
	for ; m != nil && err == nil; m, err = r.re.FindNextMatch(m) {
		if m.Length > 0 {
			parts = append(parts, m.String())
		}
	}

	if err != nil {
		return nil, err
	}

	return parts, nil
}

// Lookup resolves a pattern name or a literal pattern to a splitter. The
// names "gpt2" and "gpt4" select the built-in patterns. An empty name or
// "none" returns a nil splitter, which trains on the whole text.
func Lookup(name string) (bpe.Splitter, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	}

	pattern, ok := named[strings.ToLower(name)]
	if !ok {
		pattern = name
	}

	re, err := Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, name, err)
	}
	return re, nil
}

// Resolve expands a pattern name to its regular expression. Literal
// patterns and "none" are returned unchanged.
func Resolve(name string) string {
	if pattern, ok := named[strings.ToLower(name)]; ok {
		return pattern
	}
	return name
}
