// Package committee implements the key-generation side of the committee
// threshold decryption scheme: a fixed roster of members jointly receives
// key material so that any subset of at least threshold members can later
// contribute decryption shares for an encrypted tally.
package committee

import (
	"golang.org/x/xerrors"
)

// Member pairs a human-readable alias with the member's public
// identifier. The identifier is opaque to this package; it is typically
// derived from the member's account public key.
type Member struct {
	Alias string
	ID    string
}

// Roster is the ordered list of committee members. The position of a
// member in the roster is its participant index in the secret-sharing
// protocol, so the order must be agreed on by all parties and never
// change after setup.
type Roster struct {
	members []Member
}

// NewRoster validates the member list and freezes it into a roster.
// Identifiers must be non-empty and unique.
func NewRoster(members []Member) (*Roster, error) {
	if len(members) == 0 {
		return nil, xerrors.New("empty roster")
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.ID == "" {
			return nil, xerrors.Errorf("member %s has no identifier", m.Alias)
		}
		if seen[m.ID] {
			return nil, xerrors.Errorf("duplicate member identifier %s", m.ID)
		}
		seen[m.ID] = true
	}
	r := &Roster{members: make([]Member, len(members))}
	copy(r.members, members)
	return r, nil
}

// Len returns the number of committee members.
func (r *Roster) Len() int {
	return len(r.members)
}

// Members returns a copy of the ordered member list.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Index returns the participant index of the given identifier.
func (r *Roster) Index(id string) (int, bool) {
	for i, m := range r.members {
		if m.ID == id {
			return i, true
		}
	}
	return 0, false
}
