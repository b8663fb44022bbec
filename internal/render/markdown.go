// Package render turns the markdown level texts of a place into HTML
// for the detail panel.
package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"storymap/internal/models"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy = bluemonday.UGCPolicy()
)

// Markdown renders src and strips anything the UGC policy does not allow.
func Markdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

type LevelHTML struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	High      string `json:"high,omitempty"`
}

// PlaceDetail is the payload of the detail panel.
type PlaceDetail struct {
	Key   string       `json:"key"`
	Index int          `json:"index"`
	Place models.Place `json:"place"`
	HTML  LevelHTML    `json:"html"`
}

func Detail(p models.Place, index int) (*PlaceDetail, error) {
	d := &PlaceDetail{Key: p.Key(index), Index: index, Place: p}
	if p.LevelTexts == nil {
		return d, nil
	}
	var err error
	if d.HTML.Primary, err = Markdown(p.LevelTexts.Primary); err != nil {
		return nil, err
	}
	if d.HTML.Secondary, err = Markdown(p.LevelTexts.Secondary); err != nil {
		return nil, err
	}
	if d.HTML.High, err = Markdown(p.LevelTexts.High); err != nil {
		return nil, err
	}
	return d, nil
}

// FindPlace locates key among places by id, slug or position.
func FindPlace(places []models.Place, key string) (models.Place, int, bool) {
	for i, p := range places {
		if p.Key(i) == key || (p.Slug != "" && p.Slug == key) {
			return p, i, true
		}
	}
	return models.Place{}, -1, false
}
