package model

import "time"

// Client holds the demographic fields the prompt builder needs. The full
// client record (contact details, insurance, portal state) is owned by the
// practice-management side and never loaded here.
type Client struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Pronouns    string     `json:"pronouns,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Age returns the client's age in whole years as of now, using calendar
// subtraction: the year difference is decremented when the birthday has not
// yet occurred this year. Returns -1 when the date of birth is unknown.
func (c Client) Age(now time.Time) int {
	if c.DateOfBirth == nil {
		return -1
	}
	dob := *c.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
