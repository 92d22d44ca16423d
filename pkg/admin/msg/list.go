package msg

import "encoding/gob"

func init() {
	gob.Register(ListInvites{})
	gob.Register(InviteeList{})
}

// ListInvites asks the server for the full guest list.
type ListInvites struct{}

// MsgType returns the message type identifier for ListInvites messages.
func (m ListInvites) MsgType() string {
	return "ListInvites"
}

// Entry is one guest list row. RSVPedAt is a unix timestamp, zero while
// the guest has not responded.
type Entry struct {
	ID       int
	Name     string
	RSVPedAt int64
	Contact  string
}

// InviteeList carries the guest list back to the CLI.
type InviteeList struct {
	Invitees []Entry
}

// MsgType returns the message type identifier for InviteeList messages.
func (m InviteeList) MsgType() string {
	return "InviteeList"
}
