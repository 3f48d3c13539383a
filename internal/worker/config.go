// Package worker provides background job processing for VanRoute.
package worker

import (
	"time"

	"github.com/vanroute/vanroute/internal/config"
	"github.com/vanroute/vanroute/internal/geo"
)

// Region is an area whose candidate coverage the sweep checks.
type Region struct {
	Name     string
	Center   geo.Coordinates
	RadiusKm float64
}

// SweepConfig holds configuration for the coverage sweep job.
type SweepConfig struct {
	// Regions are the areas to sweep. If empty, uses DefaultRegions.
	Regions []Region

	// Concurrency is the number of regions queried at once.
	// Default: 4
	Concurrency int

	// Timeout bounds the source query for one region.
	// Default: 30 seconds
	Timeout time.Duration

	// Limit caps the records requested per region.
	// Default: candidate.DefaultLimit
	Limit int
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Regions:     DefaultRegions(),
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// SweepConfigFrom builds a sweep configuration from the worker section of
// the service configuration.
func SweepConfigFrom(cfg config.WorkerConfig) SweepConfig {
	sc := DefaultSweepConfig()
	if cfg.Concurrency > 0 {
		sc.Concurrency = cfg.Concurrency
	}
	if len(cfg.Regions) > 0 {
		sc.Regions = make([]Region, 0, len(cfg.Regions))
		for _, r := range cfg.Regions {
			sc.Regions = append(sc.Regions, Region{
				Name:     r.Name,
				Center:   geo.Coordinates{Lat: r.Lat, Lng: r.Lng},
				RadiusKm: r.RadiusKm,
			})
		}
	}
	return sc
}

// DefaultRegions returns popular campervan regions in the Netherlands.
func DefaultRegions() []Region {
	return []Region{
		{Name: "Veluwe", Center: geo.Coordinates{Lat: 52.1300, Lng: 5.8300}, RadiusKm: 30},
		{Name: "Zeeland", Center: geo.Coordinates{Lat: 51.5000, Lng: 3.6100}, RadiusKm: 40},
		{Name: "Wadden coast", Center: geo.Coordinates{Lat: 53.3600, Lng: 5.2200}, RadiusKm: 40},
		{Name: "South Limburg", Center: geo.Coordinates{Lat: 50.8500, Lng: 5.8700}, RadiusKm: 25},
		{Name: "Drenthe", Center: geo.Coordinates{Lat: 52.8700, Lng: 6.5800}, RadiusKm: 35},
		{Name: "Utrechtse Heuvelrug", Center: geo.Coordinates{Lat: 52.0600, Lng: 5.3800}, RadiusKm: 20},
	}
}

// Named returns the regions whose name is in names, in configured order.
// An empty names selects every region.
func (c SweepConfig) Named(names []string) []Region {
	if len(names) == 0 {
		return c.Regions
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []Region
	for _, r := range c.Regions {
		if _, ok := want[r.Name]; ok {
			out = append(out, r)
		}
	}
	return out
}
