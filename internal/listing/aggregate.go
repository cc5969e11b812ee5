package listing

import (
	"strings"
	"unicode/utf8"

	"github.com/appser/appser-store/pkg/models"
)

const (
	MinCommentLength = 5
	MaxCommentLength = 280
	ReviewPageSize   = 50
)

// ValidateReview trims the comment and checks it together with the star value.
func ValidateReview(stars int, comment string) (string, error) {
	if stars < models.MinStars || stars > models.MaxStars {
		return "", ErrInvalidStars
	}
	comment = strings.TrimSpace(comment)
	n := utf8.RuneCountInString(comment)
	if n < MinCommentLength {
		return "", ErrCommentTooShort
	}
	if n > MaxCommentLength {
		return "", ErrCommentTooLong
	}
	return comment, nil
}

// ApplyRating folds one more review into the running aggregate.
func ApplyRating(stats models.RatingStats, stars int) models.RatingStats {
	newCount := stats.TotalCount + 1
	stats.Average = (stats.Average*float64(stats.TotalCount) + float64(stars)) / float64(newCount)
	stats.TotalCount = newCount
	stats.Distribution.Add(stars)
	return stats
}

// RatingFromHistogram rebuilds the aggregate from per-star counts.
func RatingFromHistogram(h models.Histogram) models.RatingStats {
	return models.RatingStats{
		Average:      h.Mean(),
		TotalCount:   h.Total(),
		Distribution: h,
	}
}
