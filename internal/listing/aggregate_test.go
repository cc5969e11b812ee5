package listing_test

import (
	"strings"
	"testing"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestApplyRatingRunningAverage(t *testing.T) {
	prior := models.RatingStats{
		Average:      4.0,
		TotalCount:   9,
		Distribution: models.Histogram{0, 0, 1, 7, 1},
	}

	next := listing.ApplyRating(prior, 5)

	assert.InDelta(t, 4.1, next.Average, 1e-9)
	assert.Equal(t, int64(10), next.TotalCount)
	assert.Equal(t, int64(2), next.Distribution.Count(5))
	assert.Equal(t, int64(1), prior.Distribution.Count(5), "input must not be mutated")
}

func TestApplyRatingFromEmpty(t *testing.T) {
	next := listing.ApplyRating(models.RatingStats{}, 3)

	assert.Equal(t, 3.0, next.Average)
	assert.Equal(t, int64(1), next.TotalCount)
	assert.Equal(t, next.TotalCount, next.Distribution.Total())
}

func TestApplyRatingKeepsHistogramConsistent(t *testing.T) {
	var stats models.RatingStats
	for _, stars := range []int{5, 4, 4, 1, 2, 5, 3} {
		stats = listing.ApplyRating(stats, stars)
	}
	assert.Equal(t, stats.TotalCount, stats.Distribution.Total())
	assert.InDelta(t, stats.Distribution.Mean(), stats.Average, 1e-9)
}

func TestValidateReview(t *testing.T) {
	tests := []struct {
		name    string
		stars   int
		comment string
		want    string
		err     error
	}{
		{"no rating selected", 0, "Great app", "", listing.ErrInvalidStars},
		{"rating above range", 6, "Great app", "", listing.ErrInvalidStars},
		{"comment of four", 4, "Good", "", listing.ErrCommentTooShort},
		{"padding does not count", 4, "   Good   ", "", listing.ErrCommentTooShort},
		{"comment too long", 3, strings.Repeat("a", 281), "", listing.ErrCommentTooLong},
		{"minimum comment", 1, "Bad!!", "Bad!!", nil},
		{"trimmed", 5, "  Great app \n", "Great app", nil},
		{"runes not bytes", 5, "ñandú", "ñandú", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := listing.ValidateReview(tt.stars, tt.comment)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.True(t, listing.IsValidation(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRatingFromHistogram(t *testing.T) {
	stats := listing.RatingFromHistogram(models.Histogram{1, 0, 0, 0, 3})

	assert.Equal(t, int64(4), stats.TotalCount)
	assert.InDelta(t, 4.0, stats.Average, 1e-9)
}
