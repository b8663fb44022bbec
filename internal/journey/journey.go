// Package journey sequences playback of the story map: which place is
// active, which route segments are drawn as travelled, and the camera and
// route-animation commands a transition between two steps is made of.
package journey

import (
	"github.com/sirupsen/logrus"

	"storymap/internal/models"
)

// Segment is the route feature connecting two consecutive steps.
type Segment struct {
	Hop      int      `json:"hop"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	RouteID  string   `json:"routeId"`
	Order    int      `json:"order"`
	Mode     string   `json:"mode,omitempty"`
	Label    string   `json:"label,omitempty"`
	LengthKm float64  `json:"lengthKm"`
	Coords   []LngLat `json:"-"`
}

type routeRef struct {
	feature *models.RouteFeature
	pos     int
}

// Journey is the immutable playback data: the sorted, renderable places
// and the route features that connect them.
type Journey struct {
	Places   []models.Place
	Segments []*Segment // Segments[i] joins Places[i] and Places[i+1]; nil when none matches
	Routes   []*models.RouteFeature
	Skipped  int

	byPair map[string]routeRef
}

func pairKey(from, to string) string { return from + "\x00" + to }

// Build sorts places, drops those without a usable [lng, lat] pair and
// resolves a segment for every hop by matching fromSlug->toSlug.
func Build(places []models.Place, routes []*models.RouteFeature) *Journey {
	j := &Journey{byPair: make(map[string]routeRef)}

	for i, p := range places {
		if !p.HasValidCoords() {
			j.Skipped++
			logrus.WithFields(logrus.Fields{"index": i, "title": p.Title}).Debug("journey: skipping place with malformed coords")
			continue
		}
		j.Places = append(j.Places, p)
	}
	models.SortPlaces(j.Places)

	positions := make(map[*models.RouteFeature]int, len(routes))
	for i, f := range routes {
		positions[f] = i
	}
	j.Routes = models.SortRoutes(routes)
	for _, f := range j.Routes {
		pos := positions[f]
		if _, ok := f.Line(); !ok {
			continue
		}
		key := pairKey(f.FromSlug(), f.ToSlug())
		if _, dup := j.byPair[key]; !dup {
			j.byPair[key] = routeRef{feature: f, pos: pos}
		}
	}

	if n := len(j.Places); n > 1 {
		j.Segments = make([]*Segment, n-1)
		for hop := 0; hop < n-1; hop++ {
			j.Segments[hop] = j.segmentBetween(hop, hop+1)
			if j.Segments[hop] == nil {
				logrus.WithFields(logrus.Fields{
					"hop":  hop,
					"from": j.Places[hop].Slug,
					"to":   j.Places[hop+1].Slug,
				}).Debug("journey: no route feature for hop")
			}
		}
	}
	return j
}

// Len is the number of steps.
func (j *Journey) Len() int { return len(j.Places) }

// Clamp limits i to [0, Len()-1].
func (j *Journey) Clamp(i int) int {
	if i < 0 || j.Len() == 0 {
		return 0
	}
	if i > j.Len()-1 {
		return j.Len() - 1
	}
	return i
}

// Coord returns the [lng, lat] of step i.
func (j *Journey) Coord(i int) LngLat {
	lng, lat, _ := j.Places[i].Coords.LngLat()
	return LngLat{lng, lat}
}

// PlaceID returns the identity key of step i.
func (j *Journey) PlaceID(i int) string {
	return j.Places[i].Key(i)
}

// segmentBetween finds a feature drawn from step a to step b.
func (j *Journey) segmentBetween(a, b int) *Segment {
	from, to := j.Places[a].Slug, j.Places[b].Slug
	if from == "" || to == "" {
		return nil
	}
	ref, ok := j.byPair[pairKey(from, to)]
	if !ok {
		return nil
	}
	raw, _ := ref.feature.Line()
	coords := make([]LngLat, len(raw))
	for i, c := range raw {
		coords[i] = LngLat(c)
	}
	hop := -1
	if b == a+1 {
		hop = a
	}
	return &Segment{
		Hop:      hop,
		From:     from,
		To:       to,
		RouteID:  ref.feature.RouteID(ref.pos),
		Order:    ref.feature.Order(ref.pos),
		Mode:     ref.feature.Mode(),
		Label:    ref.feature.Label(),
		LengthKm: pathLength(coords),
		Coords:   coords,
	}
}

// CompletedRouteIDs lists the route IDs of the given hops that have a
// segment, in hop order.
func (j *Journey) CompletedRouteIDs(hops []int) []string {
	ids := make([]string, 0, len(hops))
	for _, h := range hops {
		if h >= 0 && h < len(j.Segments) && j.Segments[h] != nil {
			ids = append(ids, j.Segments[h].RouteID)
		}
	}
	return ids
}
