// Package qdrant reads candidate records from a Qdrant collection whose
// points carry a geo payload. Only payload filtering is used; vector
// similarity ranking is left to the collection's other consumers.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
	"github.com/vanroute/vanroute/internal/provider/resilience"
)

// Config configures the Qdrant source.
type Config struct {
	// BaseURL is the Qdrant REST endpoint, e.g. http://localhost:6333.
	BaseURL string
	// Collection holds the candidate points.
	Collection string
	// APIKey is sent as the api-key header when set.
	APIKey string
}

// Client is a candidate.Source backed by Qdrant's scroll API.
type Client struct {
	cfg  Config
	http *resilience.Client
}

// NewClient creates a Qdrant source that issues requests through httpClient.
func NewClient(cfg Config, httpClient *resilience.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// Name implements candidate.Source.
func (c *Client) Name() string { return "qdrant" }

// Nearby implements candidate.Source using a geo_radius filter.
func (c *Client) Nearby(ctx context.Context, area candidate.Area) ([]candidate.RawRecord, error) {
	filter := condition{
		Key: "location",
		GeoRadius: &geoRadius{
			Center: geoPoint{Lat: area.Center.Lat, Lon: area.Center.Lng},
			Radius: area.RadiusKm * 1000,
		},
	}
	return c.scroll(ctx, filter, limit(area.Limit))
}

// AlongCorridor implements candidate.Source. Qdrant has no line buffer
// filter, so a bounding box around the corridor is fetched and trimmed
// to the buffer locally.
func (c *Client) AlongCorridor(ctx context.Context, corridor candidate.CorridorArea) ([]candidate.RawRecord, error) {
	box := corridorBox(corridor)
	records, err := c.scroll(ctx, condition{Key: "location", GeoBoundingBox: &box}, limit(corridor.Limit)*2)
	if err != nil {
		return nil, err
	}

	line := geo.NewCorridor(corridor.Start, corridor.End)
	kept := records[:0]
	for _, rec := range records {
		if rec.Lat == nil || rec.Lng == nil {
			continue
		}
		along, offset := line.Project(geo.Coordinates{Lat: *rec.Lat, Lng: *rec.Lng})
		if offset <= corridor.BufferKm && along >= -corridor.BufferKm && along <= line.LengthKm()+corridor.BufferKm {
			kept = append(kept, rec)
		}
	}
	if n := limit(corridor.Limit); len(kept) > n {
		kept = kept[:n]
	}
	return kept, nil
}

func (c *Client) scroll(ctx context.Context, must condition, want int) ([]candidate.RawRecord, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/points/scroll", c.cfg.BaseURL, url.PathEscape(c.cfg.Collection))

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("api-key", c.cfg.APIKey)
	}

	req := scrollRequest{
		Filter:      filter{Must: []condition{must}},
		Limit:       want,
		WithPayload: true,
	}

	var records []candidate.RawRecord
	for len(records) < want {
		var resp scrollResponse
		if err := c.http.DoJSON(ctx, http.MethodPost, endpoint, header, req, &resp); err != nil {
			return nil, fmt.Errorf("qdrant scroll: %w", err)
		}
		for _, p := range resp.Result.Points {
			records = append(records, p.record())
		}
		if len(resp.Result.NextPageOffset) == 0 || string(resp.Result.NextPageOffset) == "null" {
			break
		}
		req.Offset = resp.Result.NextPageOffset
		req.Limit = want - len(records)
	}
	if len(records) > want {
		records = records[:want]
	}
	return records, nil
}

func limit(n int) int {
	if n <= 0 {
		return candidate.DefaultLimit
	}
	return n
}

// corridorBox returns the bounding box of the corridor grown by the buffer.
func corridorBox(corridor candidate.CorridorArea) geoBoundingBox {
	const kmPerDegree = 111.195
	minLat := math.Min(corridor.Start.Lat, corridor.End.Lat)
	maxLat := math.Max(corridor.Start.Lat, corridor.End.Lat)
	minLng := math.Min(corridor.Start.Lng, corridor.End.Lng)
	maxLng := math.Max(corridor.Start.Lng, corridor.End.Lng)

	latPad := corridor.BufferKm / kmPerDegree
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat)) + latPad
	lngPad := 180.0
	if cos := math.Cos(widest * math.Pi / 180); cos > 1e-6 {
		lngPad = math.Min(180, latPad/cos)
	}

	return geoBoundingBox{
		TopLeft: geoPoint{
			Lat: math.Min(90, maxLat+latPad),
			Lon: math.Max(-180, minLng-lngPad),
		},
		BottomRight: geoPoint{
			Lat: math.Max(-90, minLat-latPad),
			Lon: math.Min(180, maxLng+lngPad),
		},
	}
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type geoRadius struct {
	Center geoPoint `json:"center"`
	Radius float64  `json:"radius"`
}

type geoBoundingBox struct {
	TopLeft     geoPoint `json:"top_left"`
	BottomRight geoPoint `json:"bottom_right"`
}

type condition struct {
	Key            string          `json:"key"`
	GeoRadius      *geoRadius      `json:"geo_radius,omitempty"`
	GeoBoundingBox *geoBoundingBox `json:"geo_bounding_box,omitempty"`
}

type filter struct {
	Must []condition `json:"must"`
}

type scrollRequest struct {
	Filter      filter          `json:"filter"`
	Limit       int             `json:"limit"`
	Offset      json.RawMessage `json:"offset,omitempty"`
	WithPayload bool            `json:"with_payload"`
}

type scrollResponse struct {
	Result struct {
		Points         []point         `json:"points"`
		NextPageOffset json.RawMessage `json:"next_page_offset"`
	} `json:"result"`
	Status string `json:"status"`
}

type point struct {
	ID      json.RawMessage `json:"id"`
	Payload payload         `json:"payload"`
}

type payload struct {
	Name       string     `json:"name"`
	SourceType string     `json:"source_type"`
	Location   *geoPoint  `json:"location"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	Rating     *float64   `json:"rating"`
	Price      string     `json:"price"`
	Tags       []string   `json:"tags"`

	MaxVehicleLengthM *float64 `json:"max_vehicle_length_m"`
	MaxVehicleHeightM *float64 `json:"max_vehicle_height_m"`
	MaxVehicleWeightT *float64 `json:"max_vehicle_weight_t"`
}

// record converts a point into a RawRecord. Point IDs are either unsigned
// integers or UUID strings; both become the record ID.
func (p point) record() candidate.RawRecord {
	id := strings.Trim(string(p.ID), `"`)
	rec := candidate.RawRecord{
		ID:                id,
		Name:              p.Payload.Name,
		SourceType:        p.Payload.SourceType,
		StartsAt:          p.Payload.StartsAt,
		EndsAt:            p.Payload.EndsAt,
		Rating:            p.Payload.Rating,
		Price:             p.Payload.Price,
		Tags:              p.Payload.Tags,
		MaxVehicleLengthM: p.Payload.MaxVehicleLengthM,
		MaxVehicleHeightM: p.Payload.MaxVehicleHeightM,
		MaxVehicleWeightT: p.Payload.MaxVehicleWeightT,
	}
	if loc := p.Payload.Location; loc != nil {
		lat, lng := loc.Lat, loc.Lon
		rec.Lat = &lat
		rec.Lng = &lng
	}
	return rec
}
