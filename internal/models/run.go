package models

import "time"

// Rating is a 1-5 user score of a finished run
type Rating int

const (
	RatingOne   Rating = 1
	RatingTwo   Rating = 2
	RatingThree Rating = 3
	RatingFour  Rating = 4
	RatingFive  Rating = 5
)

// Valid reports whether r is within 1-5
func (r Rating) Valid() bool {
	return r >= RatingOne && r <= RatingFive
}

// Run is a completed generation kept in the history
type Run struct {
	ID        string        `json:"id"`
	Params    Parameters    `json:"params"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Elapsed   time.Duration `json:"elapsed"`
	ImageName string        `json:"image_name,omitempty"`
	Rating    Rating        `json:"rating"`
}

// RateRequest is the body of a rating update
type RateRequest struct {
	Rating Rating `json:"rating"`
}
