package pattern

import (
	"math"
	"sync"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// Config holds the recognizer's thresholds and catalogue bounds
type Config struct {
	MinLength           int     `json:"min_length"`
	MaxLength           int     `json:"max_length"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	QualityThreshold    float64 `json:"quality_threshold"`
	MinConfidence       float64 `json:"min_confidence"`
	MaxPatterns         int     `json:"max_patterns"`
	CorrelationWeight   float64 `json:"correlation_weight"`
	LengthWeight        float64 `json:"length_weight"`
	IdealMinLength      int     `json:"ideal_min_length"`
	IdealMaxLength      int     `json:"ideal_max_length"`
}

// DefaultConfig returns the recognizer defaults
func DefaultConfig() Config {
	return Config{
		MinLength:           5,
		MaxLength:           20,
		SimilarityThreshold: 0.8,
		QualityThreshold:    0.5,
		MinConfidence:       0.7,
		MaxPatterns:         100,
		CorrelationWeight:   0.8,
		LengthWeight:        0.2,
		IdealMinLength:      8,
		IdealMaxLength:      15,
	}
}

// Validate rejects inconsistent recognizer configuration
func (c Config) Validate() error {
	if c.MinLength < 2 || c.MaxLength < c.MinLength {
		return errors.NewConfigurationError("pattern", "validate", "pattern length bounds are inconsistent")
	}
	if c.MaxPatterns < 1 {
		return errors.NewConfigurationError("pattern", "validate", "max_patterns must be positive")
	}
	for _, v := range []float64{c.SimilarityThreshold, c.QualityThreshold, c.MinConfidence} {
		if v < 0 || v > 1 {
			return errors.NewConfigurationError("pattern", "validate", "thresholds must lie in [0, 1]")
		}
	}
	if c.CorrelationWeight < 0 || c.LengthWeight < 0 {
		return errors.NewConfigurationError("pattern", "validate", "score weights must be non-negative")
	}
	return nil
}

// Pattern is a snapshot of a catalogued shape: a normalized centroid with its
// recurrence scores.
type Pattern struct {
	Centroid   []float64
	Length     int
	Members    int
	Confidence float64
	Quality    float64
	Predictive float64
}

// Match pairs a catalogued pattern with its similarity to a probe window
type Match struct {
	Pattern    Pattern
	Similarity float64
}

// Recognizer clusters normalized price windows into a bounded, scored
// catalogue. All mutation goes through Observe under a single write lock;
// Match and Catalogue are concurrent readers.
type Recognizer struct {
	cfg   Config
	mu    sync.RWMutex
	store *arena
}

// NewRecognizer creates a recognizer with the given configuration
func NewRecognizer(cfg Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recognizer{
		cfg:   cfg,
		store: newArena(cfg.MaxPatterns, cfg.MaxLength),
	}, nil
}

// Observe slides windows of every configured length over the bar series and
// folds each normalized window into the catalogue: join the best-matching
// cluster when similarity clears the threshold, otherwise seed a new one
// (subject to the catalogue ceiling and eviction policy).
func (r *Recognizer) Observe(bars []types.Bar) {
	closes := types.Closes(bars)

	r.mu.Lock()
	defer r.mu.Unlock()

	maxLen := r.cfg.MaxLength
	if half := len(closes) / 2; half < maxLen {
		maxLen = half
	}
	for length := r.cfg.MinLength; length <= maxLen; length++ {
		for start := 0; start+length <= len(closes); start++ {
			window := normalize(closes[start : start+length])
			if window == nil {
				continue // flat window, no shape
			}

			predictive := math.NaN()
			if start+2*length <= len(closes) {
				if next := normalize(closes[start+length : start+2*length]); next != nil {
					predictive = pearson(window, next)
				}
			}
			r.observeWindow(window, predictive)
		}
	}
}

// observeWindow folds one normalized window into the catalogue. Caller holds
// the write lock.
func (r *Recognizer) observeWindow(window []float64, predictive float64) {
	idx, similarity := r.bestMatch(window)
	if idx >= 0 && similarity >= r.cfg.SimilarityThreshold {
		r.join(idx, window, similarity, predictive)
		return
	}
	r.seed(window, predictive)
}

// bestMatch scans the arena for the most similar same-length centroid
func (r *Recognizer) bestMatch(window []float64) (int, float64) {
	best, bestSim := -1, 0.0
	for i := range r.store.entries {
		e := &r.store.entries[i]
		if !e.inUse || e.length != len(window) {
			continue
		}
		sim := math.Abs(pearson(window, r.store.centroid(i)))
		if sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best, bestSim
}

// join assigns the window to cluster idx: running-average centroid update,
// refreshed confidence/quality, and a running predictive correlation.
func (r *Recognizer) join(idx int, window []float64, similarity, predictive float64) {
	e := &r.store.entries[idx]
	centroid := r.store.centroid(idx)

	n := float64(e.members)
	for i := range centroid {
		centroid[i] = (centroid[i]*n + window[i]) / (n + 1)
	}
	e.members++
	e.confidence = similarity
	e.quality = r.cfg.CorrelationWeight*similarity + r.cfg.LengthWeight*r.lengthFit(e.length)
	if !math.IsNaN(predictive) {
		r.store.recordPredictive(idx, predictive)
	}
}

// seed starts a new cluster for an unmatched window. When the arena is full
// the lowest-priority entry is evicted, unless every resident outranks a
// fresh unconfirmed candidate, in which case the window is rejected — the
// catalogue bound is never exceeded.
func (r *Recognizer) seed(window []float64, predictive float64) {
	slot := r.store.freeSlot()
	if slot < 0 {
		victim := r.store.evictable()
		if victim < 0 || r.store.entries[victim].members >= 2 {
			return // all residents are confirmed recurrences; reject the candidate
		}
		slot = victim
	}
	r.store.place(slot, window)
	if !math.IsNaN(predictive) {
		r.store.recordPredictive(slot, predictive)
	}
}

// Match normalizes the probe window and returns the best eligible catalogue
// pattern: promoted (recurrent, quality above threshold), confidence at least
// MinConfidence, and similarity clearing the threshold.
func (r *Recognizer) Match(window []float64) (Match, bool) {
	probe := normalize(window)
	if probe == nil {
		return Match{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestSim := -1, 0.0
	for i := range r.store.entries {
		e := &r.store.entries[i]
		if !r.eligible(e) || e.length != len(probe) {
			continue
		}
		sim := math.Abs(pearson(probe, r.store.centroid(i)))
		if sim >= r.cfg.SimilarityThreshold && sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		return Match{}, false
	}
	return Match{Pattern: r.snapshot(best), Similarity: bestSim}, true
}

// Catalogue returns snapshots of every promoted pattern
func (r *Recognizer) Catalogue() []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Pattern
	for i := range r.store.entries {
		if r.eligible(&r.store.entries[i]) {
			out = append(out, r.snapshot(i))
		}
	}
	return out
}

// Size returns the number of occupied catalogue slots (including
// unconfirmed candidates).
func (r *Recognizer) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.used()
}

func (r *Recognizer) eligible(e *entry) bool {
	return e.inUse && e.members >= 2 &&
		e.quality >= r.cfg.QualityThreshold &&
		e.confidence >= r.cfg.MinConfidence
}

func (r *Recognizer) snapshot(i int) Pattern {
	e := r.store.entries[i]
	centroid := make([]float64, e.length)
	copy(centroid, r.store.centroid(i))
	return Pattern{
		Centroid:   centroid,
		Length:     e.length,
		Members:    e.members,
		Confidence: e.confidence,
		Quality:    e.quality,
		Predictive: e.predictive,
	}
}

// lengthFit rewards lengths inside the configured ideal range; outside it the
// fit decays linearly with the distance, normalized by the full length span.
func (r *Recognizer) lengthFit(length int) float64 {
	var dist int
	switch {
	case length < r.cfg.IdealMinLength:
		dist = r.cfg.IdealMinLength - length
	case length > r.cfg.IdealMaxLength:
		dist = length - r.cfg.IdealMaxLength
	default:
		return 1
	}
	span := r.cfg.MaxLength - r.cfg.MinLength
	if span <= 0 {
		return 1
	}
	fit := 1 - float64(dist)/float64(span)
	if fit < 0 {
		return 0
	}
	return fit
}

// normalize standardizes prices to zero mean and unit scale so shape
// comparison is independent of absolute price. Returns nil for flat windows.
func normalize(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	mean := 0.0
	for _, p := range prices {
		mean += p
	}
	mean /= float64(len(prices))

	variance := 0.0
	for _, p := range prices {
		d := p - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(prices)))
	if std == 0 {
		return nil
	}

	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = (p - mean) / std
	}
	return out
}

// pearson computes the Pearson correlation of two equal-length sequences.
// Returns 0 when either side is degenerate.
func pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(len(a))
	meanB /= float64(len(b))

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
