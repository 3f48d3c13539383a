package planner

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/vanroute/vanroute/internal/candidate"
	"github.com/vanroute/vanroute/internal/geo"
)

// WaypointRequest asks for up to StopCount stops between Start and End.
type WaypointRequest struct {
	Start     geo.Coordinates
	End       geo.Coordinates
	StopCount int
	// MaxDistanceKm is how far off the straight corridor a stop may lie.
	// Zero uses the configured default.
	MaxDistanceKm float64
	Candidates    []candidate.Candidate
	Preferences   *Preferences
	Now           time.Time
}

// Waypoint is a selected stop and its distance along the corridor.
type Waypoint struct {
	Candidate    candidate.Candidate `json:"candidate"`
	CumulativeKm float64             `json:"cumulativeKm"`
	OffsetKm     float64             `json:"offsetKm"`
	DetourKm     float64             `json:"detourKm"`
}

// WaypointSequence is an ordered set of stops between two points.
// CumulativeKm strictly increases and no candidate appears twice.
type WaypointSequence struct {
	Start     geo.Coordinates `json:"start"`
	End       geo.Coordinates `json:"end"`
	DirectKm  float64         `json:"directKm"`
	Waypoints []Waypoint      `json:"waypoints"`
}

// Candidates returns the selected candidates in order.
func (s *WaypointSequence) Candidates() []candidate.Candidate {
	out := make([]candidate.Candidate, len(s.Waypoints))
	for i := range s.Waypoints {
		out[i] = s.Waypoints[i].Candidate
	}
	return out
}

// Path returns start, each waypoint and end as a coordinate list.
func (s *WaypointSequence) Path() []geo.Coordinates {
	path := make([]geo.Coordinates, 0, len(s.Waypoints)+2)
	path = append(path, s.Start)
	for i := range s.Waypoints {
		path = append(path, s.Waypoints[i].Candidate.Coordinates)
	}
	return append(path, s.End)
}

type placed struct {
	scored  Scored
	alongKm float64
	offset  float64
	detour  float64
}

// suggestWaypoints splits the corridor [0, D] into StopCount equal buckets
// with a target at each bucket's centre. A bucket first takes the unused
// candidate inside it with the smallest distance from target plus detour;
// ties go to the higher score, then the lower ID. Buckets left empty then
// take the nearest unused candidate anywhere on the corridor, so fewer stops
// come back only when the pool runs out.
func suggestWaypoints(req WaypointRequest, scorer Scorer, maxDistanceKm float64) WaypointSequence {
	line := geo.NewCorridor(req.Start, req.End)
	seq := WaypointSequence{
		Start:     req.Start,
		End:       req.End,
		DirectKm:  line.LengthKm(),
		Waypoints: []Waypoint{},
	}
	d := seq.DirectKm
	if req.StopCount == 0 || d <= 0 || len(req.Candidates) == 0 {
		return seq
	}

	eligible := make([]candidate.Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if c.Kind == candidate.KindOvernight || c.Kind == candidate.KindPOI {
			eligible = append(eligible, c)
		}
	}
	ranked := scorer.Rank(eligible, req.Preferences, ScoreContext{EnvelopeKm: d, Now: req.Now})

	pool := make([]placed, 0, len(ranked))
	seen := make(map[string]struct{}, len(ranked))
	for _, s := range ranked {
		if _, dup := seen[s.Candidate.ID]; dup {
			continue
		}
		along, offset := line.Project(s.Candidate.Coordinates)
		if along <= 0 || along >= d || offset > maxDistanceKm {
			continue
		}
		seen[s.Candidate.ID] = struct{}{}
		pool = append(pool, placed{
			scored:  s,
			alongKm: along,
			offset:  offset,
			detour:  line.DetourKm(s.Candidate.Coordinates),
		})
	}

	width := d / float64(req.StopCount)
	used := make([]bool, len(pool))
	chosen := make([]int, req.StopCount)

	pick := func(target float64, inBucket func(*placed) bool) int {
		best := -1
		bestCost := math.Inf(1)
		for j := range pool {
			p := &pool[j]
			if used[j] || !inBucket(p) {
				continue
			}
			cost := math.Abs(p.alongKm-target) + p.detour
			if best < 0 || cost < bestCost || (cost == bestCost && betterTieBreak(p, &pool[best])) {
				best, bestCost = j, cost
			}
		}
		if best >= 0 {
			used[best] = true
		}
		return best
	}

	for i := range chosen {
		lo, hi := float64(i)*width, float64(i+1)*width
		chosen[i] = pick(lo+width/2, func(p *placed) bool { return p.alongKm > lo && p.alongKm <= hi })
	}
	for i := range chosen {
		if chosen[i] < 0 {
			chosen[i] = pick(float64(i)*width+width/2, func(*placed) bool { return true })
		}
	}

	for _, j := range chosen {
		if j < 0 {
			continue
		}
		p := pool[j]
		seq.Waypoints = append(seq.Waypoints, Waypoint{
			Candidate:    p.scored.Candidate,
			CumulativeKm: p.alongKm,
			OffsetKm:     p.offset,
			DetourKm:     p.detour,
		})
	}

	slices.SortFunc(seq.Waypoints, func(a, b Waypoint) int {
		if c := cmp.Compare(a.CumulativeKm, b.CumulativeKm); c != 0 {
			return c
		}
		return cmp.Compare(a.Candidate.ID, b.Candidate.ID)
	})
	// Two stops at the same distance along would break the strict ordering;
	// the lower ID stays.
	seq.Waypoints = slices.CompactFunc(seq.Waypoints, func(a, b Waypoint) bool {
		return a.CumulativeKm == b.CumulativeKm
	})
	return seq
}

func betterTieBreak(a, b *placed) bool {
	if a.scored.Score != b.scored.Score {
		return a.scored.Score > b.scored.Score
	}
	return a.scored.Candidate.ID < b.scored.Candidate.ID
}
