package model

import "time"

// User is the locally simulated identity of whoever is logged in.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// Name is the display name derived from the email's local part.
	Name string `json:"name,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
