package planner

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/vanroute/vanroute/internal/candidate"
)

const neutral = 0.5

// ScoreContext carries per-request inputs the scorer needs besides preferences.
type ScoreContext struct {
	// EnvelopeKm is the reach the distance sub-score is measured against.
	EnvelopeKm float64
	// Now is the reference time for event urgency. Zero scores urgency neutrally.
	Now time.Time
}

// SubScores is the per-factor breakdown of a score, each in [0,1].
type SubScores struct {
	Interest float64 `json:"interest"`
	Rating   float64 `json:"rating"`
	Distance float64 `json:"distance"`
	Price    float64 `json:"price"`
	Urgency  float64 `json:"urgency"`
}

// Scored pairs a candidate with its score.
type Scored struct {
	Candidate candidate.Candidate
	Score     float64
}

// Scorer computes match scores. The zero value is not usable; use NewScorer.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer from cfg.
func NewScorer(cfg ScoringConfig) Scorer {
	return Scorer{cfg: cfg}
}

// Score returns the weighted match score of c in [0,1]. It is total: missing
// or malformed optional fields fall back to neutral sub-scores.
func (s Scorer) Score(c *candidate.Candidate, prefs *Preferences, sc ScoreContext) float64 {
	return s.combine(s.Breakdown(c, prefs, sc))
}

// Breakdown returns the individual sub-scores for c.
func (s Scorer) Breakdown(c *candidate.Candidate, prefs *Preferences, sc ScoreContext) SubScores {
	return s.breakdown(c, prefs.interestSet(), prefs, sc)
}

func (s Scorer) breakdown(c *candidate.Candidate, interests map[string]struct{}, prefs *Preferences, sc ScoreContext) SubScores {
	return SubScores{
		Interest: interestScore(c, interests),
		Rating:   ratingScore(c),
		Distance: distanceScore(c.DistanceKm, sc.EnvelopeKm),
		Price:    s.priceScore(c, prefs),
		Urgency:  s.urgencyScore(c, sc.Now),
	}
}

// Rank scores every candidate and orders them best first. Ties go to the
// nearer candidate, then to the lower ID.
func (s Scorer) Rank(cands []candidate.Candidate, prefs *Preferences, sc ScoreContext) []Scored {
	interests := prefs.interestSet()
	out := make([]Scored, len(cands))
	for i := range cands {
		c := &cands[i]
		out[i] = Scored{
			Candidate: *c,
			Score:     s.combine(s.breakdown(c, interests, prefs, sc)),
		}
	}
	slices.SortStableFunc(out, compareScored)
	return out
}

func compareScored(a, b Scored) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Candidate.DistanceKm, b.Candidate.DistanceKm); c != 0 {
		return c
	}
	return cmp.Compare(a.Candidate.ID, b.Candidate.ID)
}

func (s Scorer) combine(sub SubScores) float64 {
	w := s.cfg.Weights
	total := w.sum()
	if total <= 0 || math.IsNaN(total) {
		return neutral
	}
	v := (w.Interest*sub.Interest +
		w.Rating*sub.Rating +
		w.Distance*sub.Distance +
		w.Price*sub.Price +
		w.Urgency*sub.Urgency) / total
	return clamp01(v)
}

// interestScore is the fraction of the candidate's tags the traveller is
// interested in.
func interestScore(c *candidate.Candidate, interests map[string]struct{}) float64 {
	if len(c.Tags) == 0 || len(interests) == 0 {
		return neutral
	}
	matched := 0
	for _, t := range c.Tags {
		if _, ok := interests[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(c.Tags))
}

func ratingScore(c *candidate.Candidate) float64 {
	if c.Rating == nil || math.IsNaN(*c.Rating) {
		return neutral
	}
	return clamp01(*c.Rating / 5)
}

func distanceScore(distanceKm, envelopeKm float64) float64 {
	if math.IsNaN(distanceKm) || math.IsNaN(envelopeKm) {
		return neutral
	}
	if envelopeKm <= 0 {
		if distanceKm <= 0 {
			return 1
		}
		return 0
	}
	return 1 - math.Min(1, math.Max(0, distanceKm)/envelopeKm)
}

func (s Scorer) priceScore(c *candidate.Candidate, prefs *Preferences) float64 {
	if !c.PriceTier.Known() {
		return neutral
	}
	if prefs == nil || !prefs.BudgetCeiling.Known() {
		return 1
	}
	if c.PriceTier.Rank() <= prefs.BudgetCeiling.Rank() {
		return 1
	}
	return s.cfg.OverBudgetScore
}

// urgencyScore favours events that are on now or soon. Anything that is not
// an event, or an event scored without a reference time, is neutral.
func (s Scorer) urgencyScore(c *candidate.Candidate, now time.Time) float64 {
	if c.Kind != candidate.KindEvent || c.TimeWindow == nil || now.IsZero() {
		return neutral
	}
	w := c.TimeWindow
	if now.After(w.End) {
		return 0
	}
	until := w.Start.Sub(now)
	if until <= s.cfg.UrgencyWindow {
		return 1
	}
	if until >= s.cfg.UrgencyHorizon {
		return 0
	}
	span := float64(s.cfg.UrgencyHorizon - s.cfg.UrgencyWindow)
	return clamp01(1 - float64(until-s.cfg.UrgencyWindow)/span)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutral
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
