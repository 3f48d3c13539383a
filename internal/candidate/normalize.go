package candidate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vanroute/vanroute/internal/geo"
)

// DefaultEventDuration is applied to events whose source omits an end time.
const DefaultEventDuration = 2 * time.Hour

// Normalization errors. A record failing with one of these is dropped.
var (
	ErrMissingID          = errors.New("record has no id")
	ErrMissingCoordinates = errors.New("record has no coordinates")
	ErrInvalidTimeWindow  = errors.New("event ends before it starts")
)

// RawRecord is a location or event as delivered by a candidate source.
// Sources fill whichever fields they know; Normalize decides the rest.
type RawRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	SourceType string     `json:"sourceType,omitempty"`
	Lat        *float64   `json:"lat,omitempty"`
	Lng        *float64   `json:"lng,omitempty"`
	StartsAt   *time.Time `json:"startsAt,omitempty"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
	Rating     *float64   `json:"rating,omitempty"`
	Price      string     `json:"price,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	DetourKm   *float64   `json:"detourKm,omitempty"`

	MaxVehicleLengthM *float64 `json:"maxVehicleLengthM,omitempty"`
	MaxVehicleHeightM *float64 `json:"maxVehicleHeightM,omitempty"`
	MaxVehicleWeightT *float64 `json:"maxVehicleWeightT,omitempty"`
}

// overnightSourceTypes are the source types a traveller can sleep at.
var overnightSourceTypes = map[string]struct{}{
	"CAMPSITE":  {},
	"PARKING":   {},
	"REST_AREA": {},
	"HOTEL":     {},
}

// ClassifyKind derives the candidate kind from a source type and start time.
func ClassifyKind(sourceType string, startsAt *time.Time) Kind {
	if _, ok := overnightSourceTypes[canonicalSourceType(sourceType)]; ok {
		return KindOvernight
	}
	if startsAt != nil && !startsAt.IsZero() {
		return KindEvent
	}
	return KindPOI
}

func canonicalSourceType(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParsePriceTier accepts tier names, dollar signs and 0-4 price levels.
// Anything else maps to PriceUnknown.
func ParsePriceTier(s string) PriceTier {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "FREE":
		return PriceFree
	case "LOW", "CHEAP", "$":
		return PriceLow
	case "MEDIUM", "MODERATE", "$$":
		return PriceMedium
	case "HIGH", "EXPENSIVE", "$$$", "$$$$":
		return PriceHigh
	}
	level, err := strconv.Atoi(s)
	if err != nil {
		return PriceUnknown
	}
	switch {
	case level <= 0:
		return PriceFree
	case level == 1:
		return PriceLow
	case level == 2:
		return PriceMedium
	default:
		return PriceHigh
	}
}

// Normalize maps a raw record into a Candidate, measuring its distance from ref.
// It fails only when the record cannot be placed or identified.
func Normalize(raw RawRecord, ref geo.Coordinates) (Candidate, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return Candidate{}, ErrMissingID
	}
	if raw.Lat == nil || raw.Lng == nil {
		return Candidate{}, fmt.Errorf("%s: %w", id, ErrMissingCoordinates)
	}
	coords := geo.Coordinates{Lat: *raw.Lat, Lng: *raw.Lng}
	if err := coords.Validate(); err != nil {
		return Candidate{}, fmt.Errorf("%s: %w", id, err)
	}

	c := Candidate{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name),
		Kind:        ClassifyKind(raw.SourceType, raw.StartsAt),
		SourceType:  canonicalSourceType(raw.SourceType),
		Coordinates: coords,
		DistanceKm:  geo.DistanceKm(ref, coords),
		PriceTier:   ParsePriceTier(raw.Price),
		Tags:        NormalizeTags(raw.Tags),
	}

	if raw.DetourKm != nil && finiteNonNegative(*raw.DetourKm) {
		c.DetourKm = *raw.DetourKm
	}
	if raw.Rating != nil && finiteNonNegative(*raw.Rating) && *raw.Rating <= 5 {
		r := *raw.Rating
		c.Rating = &r
	}

	if raw.StartsAt != nil && !raw.StartsAt.IsZero() {
		end := raw.StartsAt.Add(DefaultEventDuration)
		if raw.EndsAt != nil && !raw.EndsAt.IsZero() {
			end = *raw.EndsAt
		}
		if end.Before(*raw.StartsAt) {
			return Candidate{}, fmt.Errorf("%s: %w", id, ErrInvalidTimeWindow)
		}
		c.TimeWindow = &TimeWindow{Start: *raw.StartsAt, End: end}
	}

	if c.Kind == KindOvernight {
		limits := VehicleLimits{
			MaxLengthM: positiveOrZero(raw.MaxVehicleLengthM),
			MaxHeightM: positiveOrZero(raw.MaxVehicleHeightM),
			MaxWeightT: positiveOrZero(raw.MaxVehicleWeightT),
		}
		if limits != (VehicleLimits{}) {
			c.VehicleLimits = &limits
		}
	}

	return c, nil
}

// Result is the outcome of normalizing a batch of records.
type Result struct {
	Candidates []Candidate
	Skipped    int
}

// NormalizeAll normalizes every record, dropping the ones that fail and
// counting them in Skipped. Duplicate IDs keep the first occurrence.
func NormalizeAll(raws []RawRecord, ref geo.Coordinates) Result {
	res := Result{Candidates: make([]Candidate, 0, len(raws))}
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		c, err := Normalize(raw, ref)
		if err != nil {
			res.Skipped++
			continue
		}
		if _, dup := seen[c.ID]; dup {
			res.Skipped++
			continue
		}
		seen[c.ID] = struct{}{}
		res.Candidates = append(res.Candidates, c)
	}
	return res
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func positiveOrZero(v *float64) float64 {
	if v == nil || !finiteNonNegative(*v) {
		return 0
	}
	return *v
}
