// Package prompt turns beat timelines and topics into text prompts for the
// generation models.
package prompt

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FallbackTheme is used for any theme name missing from the catalogue.
const FallbackTheme = "abstract"

const (
	intenseSuffix = ", intense movement"
	subtleSuffix  = ", subtle movement"
	accentEvery   = 4
)

// Theme is a named visual style for beat-driven videos.
type Theme struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Descriptor string `json:"descriptor"`
}

// Plan is one prompt per beat, in beat order.
type Plan []string

var themeOrder = []string{"realistic", "animated", "abstract", "nature"}

var descriptors = map[string]string{
	"realistic": "cinematic, photorealistic, high quality",
	"animated":  "animated, cartoon style, vibrant colors",
	"abstract":  "abstract art, flowing shapes, colorful patterns",
	"nature":    "natural landscapes, flowing water, trees",
}

// Descriptor resolves a theme name to its style descriptor. The lookup is
// exact; unknown names resolve to the abstract descriptor.
func Descriptor(theme string) string {
	if d, ok := descriptors[theme]; ok {
		return d
	}
	return descriptors[FallbackTheme]
}

// Sequence emits one prompt per beat. Every fourth beat, starting with the
// first, is accented with intense movement; the rest get subtle movement.
func Sequence(beats []float64, theme string) Plan {
	base := Descriptor(theme)
	plan := make(Plan, len(beats))
	for i := range beats {
		if i%accentEvery == 0 {
			plan[i] = base + intenseSuffix
		} else {
			plan[i] = base + subtleSuffix
		}
	}
	return plan
}

// Themes lists the catalogue in display order.
func Themes() []Theme {
	title := cases.Title(language.English)
	out := make([]Theme, 0, len(themeOrder))
	for _, name := range themeOrder {
		out = append(out, Theme{
			Name:       name,
			Label:      title.String(name),
			Descriptor: descriptors[name],
		})
	}
	return out
}
