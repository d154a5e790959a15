// Package voteplan models the vote plan documents emitted by the node
// REST API: a named collection of proposals sharing one tallying
// configuration, where each proposal carries either a public tally, an
// encrypted private tally or an already-decrypted private tally.
package voteplan

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/xerrors"
)

var (
	// ErrNotFound signals a vote plan id absent from the document.
	ErrNotFound = xerrors.New("vote plan not found")
	// ErrAmbiguous signals a missing id with several plans to pick from.
	ErrAmbiguous = xerrors.New("vote plan id required with more than one plan")
)

// TallyResult holds decrypted per-option counts.
type TallyResult struct {
	Results []uint64 `json:"results"`
}

// EncryptedTallyState carries the base64 transport encoding of the
// homomorphically-aggregated ciphertext.
type EncryptedTallyState struct {
	EncryptedTally string `json:"encrypted_tally"`
	TotalStake     uint64 `json:"total_stake,omitempty"`
}

// PrivateTallyState is either encrypted or decrypted, never both.
type PrivateTallyState struct {
	Encrypted *EncryptedTallyState `json:"encrypted,omitempty"`
	Decrypted *TallyResult         `json:"decrypted,omitempty"`
}

// PrivateTally wraps the state of a private tally.
type PrivateTally struct {
	State PrivateTallyState `json:"state"`
}

// Tally is the tally attached to one proposal.
type Tally struct {
	Public  *TallyResult  `json:"public,omitempty"`
	Private *PrivateTally `json:"private,omitempty"`
}

// Proposal is one ballot question within a vote plan.
type Proposal struct {
	Index      uint8  `json:"index"`
	ProposalID string `json:"proposal_id"`
	Options    uint8  `json:"options"`
	Tally      *Tally `json:"tally,omitempty"`
}

// EncryptedTally returns the transport-encoded ciphertext when the
// proposal holds a private tally that is still encrypted.
func (p Proposal) EncryptedTally() (string, bool) {
	if p.Tally == nil || p.Tally.Private == nil {
		return "", false
	}
	enc := p.Tally.Private.State.Encrypted
	if enc == nil {
		return "", false
	}
	return enc.EncryptedTally, true
}

// VotePlan groups the proposals tallied under one configuration.
type VotePlan struct {
	ID        string     `json:"id"`
	Payload   string     `json:"payload,omitempty"`
	Proposals []Proposal `json:"proposals"`
}

// Load parses a JSON document holding a list of vote plans.
func Load(r io.Reader) ([]VotePlan, error) {
	var plans []VotePlan
	dec := json.NewDecoder(r)
	if err := dec.Decode(&plans); err != nil {
		return nil, xerrors.Errorf("parsing vote plans: %v", err)
	}
	return plans, nil
}

// LoadFile reads vote plans from path, or from standard input when path
// is empty or "-".
func LoadFile(path string) ([]VotePlan, error) {
	if path == "" || path == "-" {
		return Load(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %v", path, err)
	}
	defer f.Close()
	plans, err := Load(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return plans, nil
}

// ByID selects one plan from the document. An empty id is accepted only
// when the document holds exactly one plan.
func ByID(plans []VotePlan, id string) (*VotePlan, error) {
	if id == "" {
		if len(plans) == 1 {
			return &plans[0], nil
		}
		return nil, ErrAmbiguous
	}
	for i := range plans {
		if plans[i].ID == id {
			return &plans[i], nil
		}
	}
	return nil, xerrors.Errorf("id %s: %w", id, ErrNotFound)
}
