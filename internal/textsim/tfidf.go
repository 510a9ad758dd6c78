package textsim

import (
	"math"
	"sort"

	"github.com/hyperjump/predicate/pkg/utils"
)

// Config holds the vectorizer settings.
type Config struct {
	// MaxFeatures caps the vocabulary to the most frequent terms across the corpus (default 200).
	MaxFeatures int `yaml:"max_features"`
	// NGramMin and NGramMax bound the n-gram range (default 1..2).
	NGramMin int `yaml:"ngram_min"`
	NGramMax int `yaml:"ngram_max"`
}

// DefaultConfig returns unigrams+bigrams capped at 200 features.
func DefaultConfig() Config {
	return Config{MaxFeatures: 200, NGramMin: 1, NGramMax: 2}
}

// Vector is a sparse L2-normalized TF-IDF vector.
type Vector map[string]float64

// Result is the outcome of comparing two texts.
type Result struct {
	// Score is cosine similarity scaled to [0,100], rounded to 2 decimals.
	Score float64
	// SharedTerms are the vocabulary terms present in both texts, strongest contribution first.
	SharedTerms []string
}

// Engine compares texts. Each comparison fits a fresh two-document corpus,
// so an Engine holds no per-request state and may be shared.
type Engine struct {
	config   Config
	analyzer *Analyzer
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg Config, analyzer *Analyzer) *Engine {
	def := DefaultConfig()
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.NGramMin <= 0 {
		cfg.NGramMin = def.NGramMin
	}
	if cfg.NGramMax < cfg.NGramMin {
		cfg.NGramMax = max(def.NGramMax, cfg.NGramMin)
	}
	return &Engine{config: cfg, analyzer: analyzer}
}

// Similarity returns the TF-IDF cosine similarity of a and b in [0,100].
// Either text being empty yields 0.
func (e *Engine) Similarity(a, b string) float64 {
	return e.Compare(a, b).Score
}

// Compare vectorizes a and b as a two-document corpus and returns their similarity.
func (e *Engine) Compare(a, b string) Result {
	vecs := e.FitTransform([]string{a, b})
	cos := Cosine(vecs[0], vecs[1])
	return Result{
		Score:       utils.Round2(utils.Clamp(cos*100, 0, 100)),
		SharedTerms: sharedTerms(vecs[0], vecs[1]),
	}
}

// FitTransform builds the vocabulary over docs and returns one normalized vector per doc.
// Vocabulary selection keeps the MaxFeatures terms with the highest corpus frequency,
// breaking ties lexicographically so output is deterministic. IDF is smoothed:
// idf(t) = ln((1+n)/(1+df(t))) + 1.
func (e *Engine) FitTransform(docs []string) []Vector {
	counts := make([]map[string]int, len(docs))
	corpusFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for i, doc := range docs {
		grams := NGrams(e.analyzer.Terms(doc), e.config.NGramMin, e.config.NGramMax)
		c := make(map[string]int, len(grams))
		for _, g := range grams {
			c[g]++
		}
		for term, n := range c {
			corpusFreq[term] += n
			docFreq[term]++
		}
		counts[i] = c
	}

	vocab := selectVocabulary(corpusFreq, e.config.MaxFeatures)
	n := float64(len(docs))
	out := make([]Vector, len(docs))
	for i, c := range counts {
		vec := make(Vector)
		var norm float64
		for _, term := range vocab {
			tf, ok := c[term]
			if !ok {
				continue
			}
			idf := math.Log((1+n)/(1+float64(docFreq[term]))) + 1
			w := float64(tf) * idf
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term, w := range vec {
				vec[term] = w / norm
			}
		}
		out[i] = vec
	}
	return out
}

// selectVocabulary returns the retained terms in lexicographic order. Iterating in a fixed
// order keeps floating-point sums identical across runs.
func selectVocabulary(freq map[string]int, maxFeatures int) []string {
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	if maxFeatures > 0 && len(terms) > maxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if freq[terms[i]] != freq[terms[j]] {
				return freq[terms[i]] > freq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)
	return terms
}

// Cosine returns the cosine similarity of two sparse vectors, 0 if either is empty.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for _, t := range a.terms() {
		w := a[t]
		na += w * w
		if v, ok := b[t]; ok {
			dot += w * v
		}
	}
	for _, t := range b.terms() {
		nb += b[t] * b[t]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// terms returns the vector's terms sorted lexicographically.
func (v Vector) terms() []string {
	out := make([]string, 0, len(v))
	for t := range v {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sharedTerms(a, b Vector) []string {
	type contrib struct {
		term string
		w    float64
	}
	var shared []contrib
	for t, w := range a {
		if v, ok := b[t]; ok {
			shared = append(shared, contrib{t, w * v})
		}
	}
	sort.Slice(shared, func(i, j int) bool {
		if shared[i].w != shared[j].w {
			return shared[i].w > shared[j].w
		}
		return shared[i].term < shared[j].term
	})
	out := make([]string, len(shared))
	for i, c := range shared {
		out[i] = c.term
	}
	return out
}
