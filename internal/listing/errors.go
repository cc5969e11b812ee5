package listing

import "errors"

var (
	ErrNotFound        = errors.New("app not found")
	ErrInvalidStars    = errors.New("select a rating")
	ErrCommentTooShort = errors.New("write a longer comment (minimum 5 characters)")
	ErrCommentTooLong  = errors.New("comment is too long (maximum 280 characters)")
	ErrNoDownloadFile  = errors.New("no file available")
	ErrInvalidApp      = errors.New("app id and name are required")
)

// IsValidation reports whether err was raised before any write took place.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidStars) ||
		errors.Is(err, ErrCommentTooShort) ||
		errors.Is(err, ErrCommentTooLong)
}
