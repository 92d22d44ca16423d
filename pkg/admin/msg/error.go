package msg

import "encoding/gob"

func init() {
	gob.Register(Error{})
}

// Error reports a failed admin command.
type Error struct {
	Reason string
}

// MsgType returns the message type identifier for Error messages.
func (m Error) MsgType() string {
	return "Error"
}
