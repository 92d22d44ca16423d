// Package msg defines the messages exchanged between the oxbow admin CLI
// and a running server. Messages are gob-encoded; each admin stream
// carries exactly one request followed by one response.
package msg

// Message is the interface all admin messages implement. MsgType returns
// a string identifier used for debugging and error reporting.
type Message interface {
	MsgType() string
}
