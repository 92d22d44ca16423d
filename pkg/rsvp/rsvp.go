// Package rsvp holds the invitation bookkeeping: who is invited and who
// has responded.
package rsvp

import "time"

// Details is the contact information a guest leaves with their RSVP. Both
// fields are optional.
type Details struct {
	PhoneNumber  *int64  `json:"phone_number"`
	EmailAddress *string `json:"email_address"`
}

// ClientRSVP is the JSON body a guest submits through the website.
type ClientRSVP struct {
	FirstName string  `json:"first_name"`
	Details   Details `json:"details"`
}

// Status classifies the outcome of an RSVP submission.
type Status string

// RSVP submission outcomes.
const (
	StatusSuccess       Status = "success"
	StatusNotInvited    Status = "not_invited"
	StatusAlreadyRSVPed Status = "already_rsvped"
)

// Response is the JSON answer to an RSVP submission. RSVPedAt carries the
// unix timestamp of the earlier response when Status is already_rsvped.
type Response struct {
	Status   Status `json:"status"`
	RSVPedAt int64  `json:"rsvped_at,omitempty"`
}

// RSVP records one guest's response.
type RSVP struct {
	Details Details
	At      time.Time
}

// Invitee is one person on the guest list. RSVP is nil until the guest
// responds.
type Invitee struct {
	ID        int
	FirstName string
	RSVP      *RSVP
}
