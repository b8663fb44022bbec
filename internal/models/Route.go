package models

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// RouteFeature is a GeoJSON Feature whose LineString connects two places.
// Known properties: fromSlug, toSlug, order, mode, label.
type RouteFeature struct {
	gjson.Feature
}

// NewRouteFeature builds a LineString feature between two place slugs.
func NewRouteFeature(fromSlug, toSlug string, order int, coords [][2]float64) *RouteFeature {
	flat := make([]geom.Coord, 0, len(coords))
	for _, c := range coords {
		flat = append(flat, geom.Coord{c[0], c[1]})
	}
	line := geom.NewLineString(geom.XY).MustSetCoords(flat)
	return &RouteFeature{Feature: gjson.Feature{
		Geometry: line,
		Properties: map[string]interface{}{
			"fromSlug": fromSlug,
			"toSlug":   toSlug,
			"order":    order,
		},
	}}
}

func (r *RouteFeature) MarshalJSON() ([]byte, error) {
	return r.Feature.MarshalJSON()
}

func (r *RouteFeature) UnmarshalJSON(data []byte) error {
	return r.Feature.UnmarshalJSON(data)
}

func (r *RouteFeature) stringProp(name string) string {
	if r.Properties == nil {
		return ""
	}
	if s, ok := r.Properties[name].(string); ok {
		return s
	}
	return ""
}

func (r *RouteFeature) FromSlug() string { return r.stringProp("fromSlug") }
func (r *RouteFeature) ToSlug() string   { return r.stringProp("toSlug") }
func (r *RouteFeature) Mode() string     { return r.stringProp("mode") }
func (r *RouteFeature) Label() string    { return r.stringProp("label") }

// Order returns the "order" property, or pos when it is missing or not a number.
func (r *RouteFeature) Order(pos int) int {
	if r.Properties == nil {
		return pos
	}
	switch v := r.Properties["order"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return pos
}

// RouteID identifies the feature on the map layers.
func (r *RouteFeature) RouteID(pos int) string {
	if r.ID != "" {
		return r.ID
	}
	if from, to := r.FromSlug(), r.ToSlug(); from != "" || to != "" {
		return from + "->" + to
	}
	return fmt.Sprintf("route-%d", pos)
}

// Line returns the LineString coordinates as [lng, lat] pairs.
// ok is false when the geometry is not a usable LineString.
func (r *RouteFeature) Line() (coords [][2]float64, ok bool) {
	ls, isLine := r.Geometry.(*geom.LineString)
	if !isLine || ls == nil || ls.NumCoords() < 2 {
		return nil, false
	}
	for _, c := range ls.Coords() {
		coords = append(coords, [2]float64{c[0], c[1]})
	}
	return coords, true
}

// SortRoutes returns the features ordered by Order, falling back to array position.
func SortRoutes(features []*RouteFeature) []*RouteFeature {
	type ranked struct {
		f     *RouteFeature
		order int
	}
	items := make([]ranked, 0, len(features))
	for i, f := range features {
		if f == nil {
			continue
		}
		items = append(items, ranked{f: f, order: f.Order(i)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].order < items[j].order })
	out := make([]*RouteFeature, len(items))
	for i, it := range items {
		out[i] = it.f
	}
	return out
}

// RouteCollection is the routes.json document. Members other than
// "features" are kept as-is so a save only replaces the features.
type RouteCollection struct {
	Meta     map[string]json.RawMessage
	Features []*RouteFeature
}

// NewRouteCollection returns an empty FeatureCollection.
func NewRouteCollection() *RouteCollection {
	return &RouteCollection{
		Meta:     map[string]json.RawMessage{"type": json.RawMessage(`"FeatureCollection"`)},
		Features: []*RouteFeature{},
	}
}

func (rc *RouteCollection) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(rc.Meta)+2)
	for k, v := range rc.Meta {
		out[k] = v
	}
	if _, ok := out["type"]; !ok {
		out["type"] = json.RawMessage(`"FeatureCollection"`)
	}
	features := rc.Features
	if features == nil {
		features = []*RouteFeature{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	out["features"] = raw
	return json.Marshal(out)
}

func (rc *RouteCollection) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	rc.Features = []*RouteFeature{}
	if raw, ok := members["features"]; ok {
		if err := json.Unmarshal(raw, &rc.Features); err != nil {
			return fmt.Errorf("decode features: %w", err)
		}
		delete(members, "features")
	}
	rc.Meta = members
	return nil
}
