// Package textsim computes lexical similarity between two device descriptions with TF-IDF and cosine similarity.
package textsim

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/hyperjump/predicate/pkg/utils"
)

// minTokenLen drops single-character tokens, matching the usual \w\w+ token pattern.
const minTokenLen = 2

// Analyzer turns text into case-folded, stop-word-free terms.
// It runs the bleve unicode tokenizer, lowercase filter and English stop filter.
type Analyzer struct {
	tokenizer analysis.Tokenizer
	filters   []analysis.TokenFilter
}

var (
	defaultAnalyzerOnce sync.Once
	defaultAnalyzer     *Analyzer
	defaultAnalyzerErr  error
)

// NewAnalyzer builds an analyzer from the bleve analysis registry.
func NewAnalyzer() (*Analyzer, error) {
	cache := registry.NewCache()
	stop, err := cache.TokenFilterNamed(en.StopName)
	if err != nil {
		return nil, fmt.Errorf("load english stop filter: %w", err)
	}
	return &Analyzer{
		tokenizer: unicode.NewUnicodeTokenizer(),
		filters:   []analysis.TokenFilter{lowercase.NewLowerCaseFilter(), stop},
	}, nil
}

// DefaultAnalyzer returns a shared analyzer. The bleve tokenizer and filters hold no
// per-call state, so one instance serves concurrent requests.
func DefaultAnalyzer() (*Analyzer, error) {
	defaultAnalyzerOnce.Do(func() {
		defaultAnalyzer, defaultAnalyzerErr = NewAnalyzer()
	})
	return defaultAnalyzer, defaultAnalyzerErr
}

// Terms returns the analyzed unigram terms of text in order.
func (a *Analyzer) Terms(text string) []string {
	text = utils.NormalizeText(text)
	if text == "" {
		return nil
	}
	stream := a.tokenizer.Tokenize([]byte(text))
	for _, f := range a.filters {
		stream = f.Filter(stream)
	}
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < minTokenLen {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// NGrams returns all n-grams of terms for n in [minN, maxN], joined by single spaces.
func NGrams(terms []string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	out := make([]string, 0, len(terms)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(terms); i++ {
			gram := terms[i]
			for j := i + 1; j < i+n; j++ {
				gram += " " + terms[j]
			}
			out = append(out, gram)
		}
	}
	return out
}
