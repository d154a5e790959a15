package tally

import (
	"encoding/json"
	"io"
	"os"

	"github.com/dedis/privtally/committee"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

var (
	// ErrDeserialization signals a malformed share bundle document.
	ErrDeserialization = xerrors.New("malformed share bundle")
	// ErrDuplicateMember signals two bundles claiming the same
	// contributing member.
	ErrDuplicateMember = xerrors.New("duplicate member contribution")
)

// ProposalShares maps one proposal to the ordered decryption shares
// contributed for it. In a single member's bundle the list holds exactly
// one share; after a merge it holds one share per contributing member,
// in the order the bundles were supplied. That position is significant:
// it is the index used by the later chunked opening.
type ProposalShares struct {
	ProposalID string   `json:"proposal_id"`
	Shares     []string `json:"shares"`
}

// MemberShares is the bundle of decryption shares contributed by one
// committee member for the proposals of a vote plan. Member carries the
// contributor's tagged public key so that the merge step can reject a
// member contributing twice; it may be empty in documents produced by
// older tools, in which case no duplicate detection is possible.
type MemberShares struct {
	Member    string           `json:"member,omitempty"`
	Proposals []ProposalShares `json:"shares"`
}

// MergedShares pools the shares of several members, keyed by proposal
// and ordered by bundle supply order within each proposal.
type MergedShares struct {
	Proposals []ProposalShares `json:"shares"`
}

func memberIdentity(secret kyber.Scalar) (string, error) {
	public := cothority.Suite.Point().Mul(secret, nil)
	return committee.EncodePublicKey(public)
}

// ReadMemberShares parses and validates one member's bundle document.
// Every share in the document must decode as a valid share.
func ReadMemberShares(r io.Reader) (*MemberShares, error) {
	var bundle MemberShares
	dec := json.NewDecoder(r)
	if err := dec.Decode(&bundle); err != nil {
		return nil, xerrors.Errorf("parsing bundle: %v: %w", err,
			ErrDeserialization)
	}
	for _, prop := range bundle.Proposals {
		if prop.ProposalID == "" {
			return nil, xerrors.Errorf("bundle entry without proposal id:"+
				" %w", ErrDeserialization)
		}
		for _, text := range prop.Shares {
			if _, err := ShareFromBase64(text); err != nil {
				return nil, xerrors.Errorf("proposal %s: %w",
					prop.ProposalID, err)
			}
		}
	}
	return &bundle, nil
}

// ReadMemberSharesFile loads a bundle from a file path.
func ReadMemberSharesFile(path string) (*MemberShares, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %v", path, err)
	}
	defer f.Close()
	bundle, err := ReadMemberShares(f)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	return bundle, nil
}

// Merge pools the bundles of several members into one structure ready
// for the final tally opening. For each proposal appearing in any
// bundle, the merged share list concatenates the bundles' shares in
// supply order. Bundles restricted to a subset of the proposals are
// valid. Two bundles carrying the same non-empty member identity are
// rejected; the caller remains responsible for supplying bundles from
// distinct members in the agreed order.
func Merge(bundles []*MemberShares) (*MergedShares, error) {
	merged := &MergedShares{}
	index := make(map[string]int)
	contributors := make(map[string]bool)

	for _, bundle := range bundles {
		if bundle == nil {
			return nil, xerrors.Errorf("nil bundle: %w", ErrDeserialization)
		}
		if bundle.Member != "" {
			if contributors[bundle.Member] {
				return nil, xerrors.Errorf("member %s: %w", bundle.Member,
					ErrDuplicateMember)
			}
			contributors[bundle.Member] = true
		}
		for _, prop := range bundle.Proposals {
			if prop.ProposalID == "" {
				return nil, xerrors.Errorf("bundle entry without proposal"+
					" id: %w", ErrDeserialization)
			}
			for _, text := range prop.Shares {
				if _, err := ShareFromBase64(text); err != nil {
					return nil, xerrors.Errorf("proposal %s: %w",
						prop.ProposalID, err)
				}
			}
			pos, ok := index[prop.ProposalID]
			if !ok {
				pos = len(merged.Proposals)
				index[prop.ProposalID] = pos
				merged.Proposals = append(merged.Proposals, ProposalShares{
					ProposalID: prop.ProposalID,
				})
			}
			merged.Proposals[pos].Shares = append(
				merged.Proposals[pos].Shares, prop.Shares...)
		}
	}
	return merged, nil
}

// Validate checks that every proposal pooled at least threshold shares,
// i.e. that the merged structure is sufficient for the final opening.
func (m *MergedShares) Validate(threshold int) error {
	if threshold < 1 {
		return xerrors.New("threshold must be at least 1")
	}
	for _, prop := range m.Proposals {
		if len(prop.Shares) < threshold {
			return xerrors.Errorf("proposal %s has %d shares, %d needed",
				prop.ProposalID, len(prop.Shares), threshold)
		}
	}
	return nil
}

// WriteJSON renders the merged document.
func (m *MergedShares) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(m)
}

// WriteJSON renders one member's bundle document.
func (b *MemberShares) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(b)
}
