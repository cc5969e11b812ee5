package models

import "time"

// AnonymousAuthor is the author tag of every review; visitors are not identified.
const AnonymousAuthor = "anonymous"

type Review struct {
	ID        string    `json:"id" db:"id"`
	AppID     string    `json:"app_id" db:"app_id"`
	Stars     int       `json:"stars" db:"stars"`
	Comment   string    `json:"comment" db:"comment"`
	Author    string    `json:"author" db:"author"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type SubmitReviewRequest struct {
	Stars   int    `json:"stars" form:"stars"`
	Comment string `json:"comment" form:"comment"`
}

type SubmitReviewResponse struct {
	Review Review      `json:"review"`
	Rating RatingStats `json:"rating"`
}

type ReviewList struct {
	Reviews []Review `json:"reviews"`
	Count   int      `json:"count"`
}
