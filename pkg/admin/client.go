package admin

import (
	"encoding/gob"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/yamux"

	"oxbowlabs/oxbow/pkg/admin/msg"
)

// Client runs admin commands against a running oxbow server.
type Client struct {
	conn    net.Conn
	session *yamux.Session
}

// Dial connects to the server's admin address.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dialing admin address %s: %w", addr, err)
	}

	session, err := yamux.Client(conn, muxConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("yamux.Client(conn): %w", err)
	}

	return &Client{
		conn:    conn,
		session: session,
	}, nil
}

// Invite adds a name to the guest list.
func (c *Client) Invite(name string) (msg.InviteResult, error) {
	reply, err := c.roundTrip(msg.Invite{Name: name})
	if err != nil {
		return msg.InviteResult{}, err
	}

	result, ok := reply.(msg.InviteResult)
	if !ok {
		return msg.InviteResult{}, fmt.Errorf("unexpected reply %s", reply.MsgType())
	}
	return result, nil
}

// ListInvites fetches the guest list.
func (c *Client) ListInvites() ([]msg.Entry, error) {
	reply, err := c.roundTrip(msg.ListInvites{})
	if err != nil {
		return nil, err
	}

	list, ok := reply.(msg.InviteeList)
	if !ok {
		return nil, fmt.Errorf("unexpected reply %s", reply.MsgType())
	}
	return list.Invitees, nil
}

// roundTrip opens one stream for the request and reads the single reply.
// A msg.Error reply is surfaced as an error.
func (c *Client) roundTrip(request msg.Message) (msg.Message, error) {
	st, err := c.session.Open()
	if err != nil {
		return nil, fmt.Errorf("session.Open(): %w", err)
	}
	defer st.Close()

	if err := gob.NewEncoder(st).Encode(&request); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", request.MsgType(), err)
	}

	var reply msg.Message
	if err := gob.NewDecoder(st).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding reply to %s: %w", request.MsgType(), err)
	}

	if e, ok := reply.(msg.Error); ok {
		return nil, fmt.Errorf("%s", e.Reason)
	}
	return reply, nil
}

// Close tears down the session and the underlying connection.
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}
