package models

import (
	"bytes"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
)

// LevelTexts holds the narrative for a place at three reading levels.
// Each text is markdown.
type LevelTexts struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	High      string `json:"high,omitempty"`
}

// Media lists the public URLs attached to a place.
type Media struct {
	Cover   string   `json:"cover,omitempty"`
	Gallery []string `json:"gallery,omitempty"`
	Images  []string `json:"images,omitempty"`
	Videos  []string `json:"videos,omitempty"`
	Audio   string   `json:"audio,omitempty"`
}

// Coords is the raw "coords" member of a place, expected to be [lng, lat].
// It is kept verbatim so that a malformed value survives a save; the map
// skips places whose Coords do not parse.
type Coords json.RawMessage

// NewCoords encodes a [lng, lat] pair.
func NewCoords(lng, lat float64) Coords {
	b, _ := json.Marshal([2]float64{lng, lat})
	return Coords(b)
}

func (c Coords) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *Coords) UnmarshalJSON(b []byte) error {
	raw, err := compact(b)
	if err != nil {
		return err
	}
	*c = Coords(raw)
	return nil
}

// LngLat parses c as exactly two JSON numbers forming a finite position
// within [-180, 180] x [-90, 90].
func (c Coords) LngLat() (lng, lat float64, ok bool) {
	var parts []json.RawMessage
	if len(c) == 0 || json.Unmarshal(c, &parts) != nil || len(parts) != 2 {
		return 0, 0, false
	}
	var v [2]float64
	for i, raw := range parts {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
			return 0, 0, false
		}
		if err := json.Unmarshal(raw, &v[i]); err != nil {
			return 0, 0, false
		}
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return 0, 0, false
		}
	}
	if v[0] < -180 || v[0] > 180 || v[1] < -90 || v[1] > 90 {
		return 0, 0, false
	}
	return v[0], v[1], true
}

// Place is a point of interest on the story map.
//
// Members are decoded leniently: anything that is not one of the fields
// below, or that does not fit the field's type, is kept in Extra and
// written back unchanged.
type Place struct {
	ID          string      `json:"id,omitempty"`
	Slug        string      `json:"slug,omitempty"`
	Title       string      `json:"title"`
	Country     string      `json:"country,omitempty"`
	City        string      `json:"city,omitempty"`
	Coords      Coords      `json:"coords,omitempty"`
	DateStart   string      `json:"dateStart,omitempty"`
	DateEnd     string      `json:"dateEnd,omitempty"`
	PeriodLabel string      `json:"periodLabel,omitempty"`
	LevelTexts  *LevelTexts `json:"levelTexts,omitempty"`
	Media       *Media      `json:"media,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Sources     []string    `json:"sources,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var placeMembers = []string{
	"id", "slug", "title", "country", "city", "coords", "dateStart", "dateEnd",
	"periodLabel", "levelTexts", "media", "tags", "sources",
}

// field returns a pointer to the field stored under key and whether it
// is left out on encode.
func (p *Place) field(key string) (ptr any, omit bool, known bool) {
	switch key {
	case "id":
		return &p.ID, p.ID == "", true
	case "slug":
		return &p.Slug, p.Slug == "", true
	case "title":
		return &p.Title, false, true
	case "country":
		return &p.Country, p.Country == "", true
	case "city":
		return &p.City, p.City == "", true
	case "coords":
		return &p.Coords, len(p.Coords) == 0, true
	case "dateStart":
		return &p.DateStart, p.DateStart == "", true
	case "dateEnd":
		return &p.DateEnd, p.DateEnd == "", true
	case "periodLabel":
		return &p.PeriodLabel, p.PeriodLabel == "", true
	case "levelTexts":
		return &p.LevelTexts, p.LevelTexts == nil, true
	case "media":
		return &p.Media, p.Media == nil, true
	case "tags":
		return &p.Tags, len(p.Tags) == 0, true
	case "sources":
		return &p.Sources, len(p.Sources) == 0, true
	}
	return nil, true, false
}

func (p *Place) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*p = Place{}
	var err error
	for key, raw := range members {
		var scratch Place
		if ptr, _, known := scratch.field(key); known && !isNull(raw) && json.Unmarshal(raw, ptr) == nil {
			target, _, _ := p.field(key)
			if err = json.Unmarshal(raw, target); err != nil {
				return err
			}
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]json.RawMessage)
		}
		if p.Extra[key], err = compact(raw); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the known members in declaration order, then the
// remaining Extra members sorted by key. An Extra entry under a known key
// replaces that field.
func (p Place) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, raw []byte) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}

	for _, key := range placeMembers {
		raw, ok := p.Extra[key]
		if !ok {
			ptr, omit, _ := p.field(key)
			if omit {
				continue
			}
			var err error
			if raw, err = json.Marshal(ptr); err != nil {
				return nil, err
			}
		}
		if err := write(key, raw); err != nil {
			return nil, err
		}
	}

	extra := make([]string, 0, len(p.Extra))
	for key := range p.Extra {
		if _, _, known := p.field(key); !known {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if err := write(key, p.Extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func compact(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Key returns the identity used by the map and editors: id, then slug,
// then the position of the place in its list.
func (p Place) Key(index int) string {
	if p.ID != "" {
		return p.ID
	}
	if p.Slug != "" {
		return p.Slug
	}
	return strconv.Itoa(index)
}

// HasValidCoords reports whether Coords is a finite [lng, lat] pair of
// JSON numbers.
func (p Place) HasValidCoords() bool {
	_, _, ok := p.Coords.LngLat()
	return ok
}

// SortPlaces orders places by DateStart (lexicographic) and then by Title.
// The sort is stable so fully equal places keep their input order.
func SortPlaces(places []Place) {
	sort.SliceStable(places, func(i, j int) bool {
		if places[i].DateStart != places[j].DateStart {
			return places[i].DateStart < places[j].DateStart
		}
		return places[i].Title < places[j].Title
	})
}
