package locations

import "time"

// Location is a user-submitted haunted place.
type Location struct {
	ID          string
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	Behavior    string
	Documented  bool
	// CreatedBy is a weak reference to the submitting user's id; it may dangle.
	CreatedBy string
	// CreatorUsername is resolved at read time and never stored.
	CreatorUsername string
	CreatedAt       time.Time
}

// CreateInput carries raw submission fields. Coordinates stay textual until
// the service parses them.
type CreateInput struct {
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Latitude    string `validate:"required"`
	Longitude   string `validate:"required"`
	Behavior    string
	Documented  bool
	CreatorID   string
}
