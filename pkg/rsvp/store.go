package rsvp

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Store keeps the guest list. All mutations are serialized through one
// mutex and written out as a gob snapshot, so a crash loses at most the
// operation in flight.
type Store struct {
	mu       sync.Mutex
	path     string // empty means in-memory only
	invitees map[int]*Invitee
	nextID   int
	subs     map[chan int]struct{}
}

// snapshot is the on-disk layout.
type snapshot struct {
	Invitees []Invitee
	NextID   int
}

// Open loads the guest list from path, starting empty if the file does
// not exist yet. An empty path keeps the store in memory only.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		invitees: make(map[int]*Invitee),
		nextID:   1,
		subs:     make(map[chan int]struct{}),
	}

	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening guest list %s: %w", path, err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding guest list %s: %w", path, err)
	}

	for i := range snap.Invitees {
		inv := snap.Invitees[i]
		s.invitees[inv.ID] = &inv
	}
	s.nextID = snap.NextID
	return s, nil
}

// Invite adds a name to the guest list and returns the new entry. Names
// are trimmed; empty or duplicate names are rejected.
func (s *Store) Invite(name string) (Invitee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invitee{}, fmt.Errorf("invitee name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(name) != nil {
		return Invitee{}, fmt.Errorf("%q is already invited", name)
	}

	inv := &Invitee{
		ID:        s.nextID,
		FirstName: name,
	}
	s.nextID++
	s.invitees[inv.ID] = inv

	if err := s.persistLocked(); err != nil {
		delete(s.invitees, inv.ID)
		return Invitee{}, err
	}
	return *inv, nil
}

// Invitees returns the guest list ordered by ID.
func (s *Store) Invitees() []Invitee {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Invitee, 0, len(s.invitees))
	for _, inv := range s.invitees {
		out = append(out, *inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EnterRSVP records a guest's response. Unknown guests get not_invited;
// a guest who already responded gets already_rsvped with the timestamp of
// the earlier response, and the earlier response is kept.
func (s *Store) EnterRSVP(r ClientRSVP) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.findLocked(r.FirstName)
	if inv == nil {
		return Response{Status: StatusNotInvited}, nil
	}

	if inv.RSVP != nil {
		return Response{
			Status:   StatusAlreadyRSVPed,
			RSVPedAt: inv.RSVP.At.Unix(),
		}, nil
	}

	inv.RSVP = &RSVP{
		Details: r.Details,
		At:      time.Now(),
	}

	if err := s.persistLocked(); err != nil {
		inv.RSVP = nil
		return Response{}, err
	}

	s.notifyLocked()
	return Response{Status: StatusSuccess}, nil
}

// Attendance returns the number of guests who have responded.
func (s *Store) Attendance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attendanceLocked()
}

// Subscribe registers for attendance updates. Every change pushes the new
// count; slow subscribers miss intermediate values rather than blocking
// the store. The returned func cancels the subscription.
func (s *Store) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) findLocked(name string) *Invitee {
	for _, inv := range s.invitees {
		if strings.EqualFold(inv.FirstName, strings.TrimSpace(name)) {
			return inv
		}
	}
	return nil
}

func (s *Store) attendanceLocked() int {
	n := 0
	for _, inv := range s.invitees {
		if inv.RSVP != nil {
			n++
		}
	}
	return n
}

func (s *Store) notifyLocked() {
	count := s.attendanceLocked()
	for ch := range s.subs {
		select {
		case ch <- count:
		default:
			// drop stale value so the latest one fits
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- count:
			default:
			}
		}
	}
}

// persistLocked writes the snapshot via a temp file and rename so a crash
// mid-write cannot corrupt the guest list.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	snap := snapshot{NextID: s.nextID}
	for _, inv := range s.invitees {
		snap.Invitees = append(snap.Invitees, *inv)
	}
	sort.Slice(snap.Invitees, func(i, j int) bool { return snap.Invitees[i].ID < snap.Invitees[j].ID })

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding guest list: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
