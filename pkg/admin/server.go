// Package admin implements the control channel between a running oxbow
// server and the admin CLI. A connection carries a yamux session; every
// command opens one stream with a gob-encoded request and response.
package admin

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"

	"github.com/hashicorp/yamux"

	"oxbowlabs/oxbow/pkg/admin/msg"
	"oxbowlabs/oxbow/pkg/log"
	"oxbowlabs/oxbow/pkg/rsvp"
	"oxbowlabs/oxbow/pkg/stream"
)

// Server answers admin commands against the guest list.
type Server struct {
	store  *rsvp.Store
	logger *log.Logger
}

// NewServer returns an admin Server backed by the given store.
func NewServer(store *rsvp.Store, logger *log.Logger) *Server {
	return &Server{
		store:  store,
		logger: logger,
	}
}

// Handle serves one admin connection until the CLI disconnects. It is an
// acceptor.Handler.
func (s *Server) Handle(conn stream.Conn) error {
	session, err := yamux.Server(conn, muxConfig())
	if err != nil {
		return fmt.Errorf("yamux.Server(conn): %w", err)
	}
	defer session.Close()

	for {
		st, err := session.Accept()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("session.Accept(): %w", err)
		}

		go func() {
			defer st.Close()
			if err := s.handleStream(st); err != nil {
				s.logger.ErrorMsg("Admin command: %s\n", err)
			}
		}()
	}
}

func (s *Server) handleStream(st net.Conn) error {
	var request msg.Message
	if err := gob.NewDecoder(st).Decode(&request); err != nil {
		return fmt.Errorf("decoding request: %w", err)
	}

	reply := s.dispatch(request)
	if err := gob.NewEncoder(st).Encode(&reply); err != nil {
		return fmt.Errorf("encoding reply to %s: %w", request.MsgType(), err)
	}
	return nil
}

func (s *Server) dispatch(request msg.Message) msg.Message {
	switch m := request.(type) {
	case msg.Invite:
		inv, err := s.store.Invite(m.Name)
		if err != nil {
			return msg.Error{Reason: err.Error()}
		}
		s.logger.InfoMsg("Invited %s\n", inv.FirstName)
		return msg.InviteResult{ID: inv.ID, Name: inv.FirstName}

	case msg.ListInvites:
		var out msg.InviteeList
		for _, inv := range s.store.Invitees() {
			entry := msg.Entry{
				ID:   inv.ID,
				Name: inv.FirstName,
			}
			if inv.RSVP != nil {
				entry.RSVPedAt = inv.RSVP.At.Unix()
				entry.Contact = formatContact(inv.RSVP.Details)
			}
			out.Invitees = append(out.Invitees, entry)
		}
		return out

	default:
		return msg.Error{Reason: fmt.Sprintf("unknown command %s", request.MsgType())}
	}
}

// formatContact renders the contact details a guest left with their RSVP.
func formatContact(d rsvp.Details) string {
	switch {
	case d.PhoneNumber != nil && d.EmailAddress != nil:
		return fmt.Sprintf("phone %d, email %s", *d.PhoneNumber, *d.EmailAddress)
	case d.PhoneNumber != nil:
		return fmt.Sprintf("phone %d", *d.PhoneNumber)
	case d.EmailAddress != nil:
		return fmt.Sprintf("email %s", *d.EmailAddress)
	default:
		return "no contact info"
	}
}

// muxConfig silences yamux's own console logging.
func muxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.LogOutput = nil
	cfg.Logger = stdlog.New(io.Discard, "", stdlog.LstdFlags)
	return cfg
}
