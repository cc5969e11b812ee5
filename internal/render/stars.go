package render

import (
	"math"
	"strings"

	"github.com/appser/appser-store/pkg/models"
)

const (
	GlyphFull  = "★"
	GlyphHalf  = "⯨"
	GlyphEmpty = "☆"
)

// StarRating is the glyph breakdown of an average rating.
type StarRating struct {
	Full   int
	Half   int
	Empty  int
	Glyphs string
}

// Stars rounds avg into glyphs. The fractional part decides the last glyph:
// below 0.25 nothing, up to 0.75 a half glyph, from 0.75 one more full glyph.
func Stars(avg float64) StarRating {
	if math.IsNaN(avg) || avg < 0 {
		avg = 0
	}
	if avg > models.MaxStars {
		avg = models.MaxStars
	}

	full := int(math.Floor(avg))
	frac := avg - float64(full)
	half := 0
	switch {
	case frac >= 0.75:
		full++
	case frac >= 0.25:
		half = 1
	}
	if full > models.MaxStars {
		full = models.MaxStars
	}

	s := StarRating{Full: full, Half: half, Empty: models.MaxStars - full - half}
	s.Glyphs = strings.Repeat(GlyphFull, s.Full) +
		strings.Repeat(GlyphHalf, s.Half) +
		strings.Repeat(GlyphEmpty, s.Empty)
	return s
}

// Bar is one row of the rating distribution chart.
type Bar struct {
	Stars    int
	Count    int64
	Fraction float64
}

// Percent is the bar width as a CSS percentage.
func (b Bar) Percent() float64 {
	return b.Fraction * 100
}

// Bars returns the distribution rows from 5 stars down to 1. Legacy records
// carry a rating count but no histogram; those are drawn as all 5 stars.
func Bars(h models.Histogram, ratingCount int64) []Bar {
	total := h.Total()
	if total == 0 && ratingCount > 0 {
		h = models.Histogram{}
		h[models.MaxStars-1] = ratingCount
		total = ratingCount
	}

	bars := make([]Bar, 0, models.MaxStars)
	for stars := models.MaxStars; stars >= models.MinStars; stars-- {
		b := Bar{Stars: stars, Count: h.Count(stars)}
		if total > 0 {
			b.Fraction = float64(b.Count) / float64(total)
		}
		bars = append(bars, b)
	}
	return bars
}

// ReviewTotal is the figure shown next to the chart.
func ReviewTotal(h models.Histogram, ratingCount int64) int64 {
	if total := h.Total(); total > 0 {
		return total
	}
	return ratingCount
}
