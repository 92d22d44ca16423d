package msg

import "encoding/gob"

func init() {
	gob.Register(Invite{})
	gob.Register(InviteResult{})
}

// Invite asks the server to add a name to the guest list.
type Invite struct {
	Name string
}

// MsgType returns the message type identifier for Invite messages.
func (m Invite) MsgType() string {
	return "Invite"
}

// InviteResult reports the newly created guest list entry.
type InviteResult struct {
	ID   int
	Name string
}

// MsgType returns the message type identifier for InviteResult messages.
func (m InviteResult) MsgType() string {
	return "InviteResult"
}
