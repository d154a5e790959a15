package tally

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"

	"github.com/dedis/privtally/utils"
	"github.com/dedis/privtally/voteplan"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
	"golang.org/x/xerrors"
)

// shareElement is the partial decryption of one ciphertext element
// together with the proof that it was computed with the secret share
// matching the member's public key.
type shareElement struct {
	Sh kyber.Point
	Ei kyber.Scalar
	Fi kyber.Scalar
}

// elementSize is the binary size of one share element.
func elementSize() int {
	return cothority.Suite.PointLen() + 2*cothority.Suite.ScalarLen()
}

// DecryptionShare is one member's partial contribution toward
// decrypting one encrypted tally. It is publishable: below the
// threshold count, shares reveal nothing about the tally.
type DecryptionShare struct {
	elements []shareElement
}

// DecryptedTally is the member's internal view of the tally after
// removing its own contribution: one group element per option, holding
// the per-option count in the exponent once all required shares are
// combined.
type DecryptedTally struct {
	Points []kyber.Point
}

// proofNonce derives the Chaum-Pedersen commitment nonce from the secret
// and the ciphertext element. Drawing it from a seeded XOF instead of
// fresh randomness keeps ShareForTally a pure function: the same inputs
// always produce the same share bytes.
func proofNonce(secret kyber.Scalar, p utils.ElGamalPair) (kyber.Scalar, error) {
	var seed bytes.Buffer
	if _, err := secret.MarshalTo(&seed); err != nil {
		return nil, xerrors.Errorf("marshalling secret: %v", err)
	}
	if _, err := p.K.MarshalTo(&seed); err != nil {
		return nil, xerrors.Errorf("marshalling element: %v", err)
	}
	if _, err := p.C.MarshalTo(&seed); err != nil {
		return nil, xerrors.Errorf("marshalling element: %v", err)
	}
	return cothority.Suite.Scalar().Pick(blake2xb.New(seed.Bytes())), nil
}

// shareForPair computes sh = x*K with the proof (ei, fi) that the same x
// underlies the member's public key.
func shareForPair(secret kyber.Scalar, p utils.ElGamalPair) (shareElement, error) {
	sh := cothority.Suite.Point().Mul(secret, p.K)
	si, err := proofNonce(secret, p)
	if err != nil {
		return shareElement{}, err
	}
	uiHat := cothority.Suite.Point().Mul(si, p.K)
	hiHat := cothority.Suite.Point().Mul(si, nil)
	hash := sha256.New()
	sh.MarshalTo(hash)
	uiHat.MarshalTo(hash)
	hiHat.MarshalTo(hash)
	ei := cothority.Suite.Scalar().SetBytes(hash.Sum(nil))
	fi := cothority.Suite.Scalar().Add(si,
		cothority.Suite.Scalar().Mul(ei, secret))
	return shareElement{Sh: sh, Ei: ei, Fi: fi}, nil
}

// ShareForTally computes one member's decryption share for an encrypted
// tally, together with the member's internal decrypted state. The
// computation is deterministic: re-running with the same inputs yields a
// bit-identical share.
func ShareForTally(et *EncryptedTally, secret kyber.Scalar) (*DecryptedTally,
	*DecryptionShare, error) {
	if et == nil || len(et.Pairs) == 0 {
		return nil, nil, xerrors.Errorf("empty tally: %w", ErrMalformedTally)
	}
	elements := make([]shareElement, len(et.Pairs))
	points := make([]kyber.Point, len(et.Pairs))
	for i, p := range et.Pairs {
		el, err := shareForPair(secret, p)
		if err != nil {
			return nil, nil, xerrors.Errorf("element %d: %v", i, err)
		}
		elements[i] = el
		points[i] = cothority.Suite.Point().Sub(p.C, el.Sh)
	}
	return &DecryptedTally{Points: points},
		&DecryptionShare{elements: elements}, nil
}

// VerifyShare checks every element of a decryption share against the
// tally it was computed from and the member's public key.
func VerifyShare(et *EncryptedTally, public kyber.Point,
	ds *DecryptionShare) bool {
	if et == nil || ds == nil || len(et.Pairs) != len(ds.elements) {
		return false
	}
	for i, el := range ds.elements {
		if !verifyDecProof(el.Sh, el.Ei, el.Fi, et.Pairs[i].K, public) {
			return false
		}
	}
	return true
}

// verifyDecProof checks a Chaum-Pedersen decryption proof.
// sh = x*u, pub = x*G: the verifier recomputes the challenge from the
// reconstructed commitments.
func verifyDecProof(sh kyber.Point, ei, fi kyber.Scalar, u,
	pub kyber.Point) bool {
	ufi := cothority.Suite.Point().Mul(fi, u)
	uiei := cothority.Suite.Point().Mul(cothority.Suite.Scalar().Neg(ei), sh)
	uiHat := cothority.Suite.Point().Add(ufi, uiei)
	gfi := cothority.Suite.Point().Mul(fi, nil)
	hiei := cothority.Suite.Point().Mul(cothority.Suite.Scalar().Neg(ei), pub)
	hiHat := cothority.Suite.Point().Add(gfi, hiei)
	hash := sha256.New()
	sh.MarshalTo(hash)
	uiHat.MarshalTo(hash)
	hiHat.MarshalTo(hash)
	e := cothority.Suite.Scalar().SetBytes(hash.Sum(nil))
	return e.Equal(ei)
}

// Counts opens the decrypted state by searching the count encoded in
// each point's exponent, up to maxVotes. Only meaningful once the state
// reflects all required member contributions, e.g. in the
// single-member election key setting.
func (dt *DecryptedTally) Counts(maxVotes uint64) ([]uint64, error) {
	counts := make([]uint64, len(dt.Points))
	for i, p := range dt.Points {
		found := false
		acc := cothority.Suite.Point().Null()
		base := cothority.Suite.Point().Base()
		for v := uint64(0); v <= maxVotes; v++ {
			if acc.Equal(p) {
				counts[i] = v
				found = true
				break
			}
			acc = acc.Add(acc, base)
		}
		if !found {
			return nil, xerrors.Errorf("option %d holds more than %d votes",
				i, maxVotes)
		}
	}
	return counts, nil
}

// MarshalBinary renders the share as the concatenation of its elements,
// without any length prefix.
func (ds *DecryptionShare) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, el := range ds.elements {
		if _, err := el.Sh.MarshalTo(&buf); err != nil {
			return nil, xerrors.Errorf("marshalling share: %v", err)
		}
		if _, err := el.Ei.MarshalTo(&buf); err != nil {
			return nil, xerrors.Errorf("marshalling share: %v", err)
		}
		if _, err := el.Fi.MarshalTo(&buf); err != nil {
			return nil, xerrors.Errorf("marshalling share: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// Base64 renders the share in its transport encoding.
func (ds *DecryptionShare) Base64() (string, error) {
	buf, err := ds.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// ShareFromBytes parses the binary share encoding.
func ShareFromBytes(data []byte) (*DecryptionShare, error) {
	size := elementSize()
	if len(data) == 0 || len(data)%size != 0 {
		return nil, xerrors.Errorf("share has %d bytes, expected a"+
			" positive multiple of %d: %w", len(data), size,
			ErrDeserialization)
	}
	pointLen := cothority.Suite.PointLen()
	scalarLen := cothority.Suite.ScalarLen()
	elements := make([]shareElement, len(data)/size)
	for i := range elements {
		chunk := data[i*size:]
		sh := cothority.Suite.Point()
		if err := sh.UnmarshalBinary(chunk[:pointLen]); err != nil {
			return nil, xerrors.Errorf("element %d: %v: %w", i, err,
				ErrDeserialization)
		}
		ei := cothority.Suite.Scalar().SetBytes(
			chunk[pointLen : pointLen+scalarLen])
		fi := cothority.Suite.Scalar().SetBytes(
			chunk[pointLen+scalarLen : size])
		elements[i] = shareElement{Sh: sh, Ei: ei, Fi: fi}
	}
	return &DecryptionShare{elements: elements}, nil
}

// ShareFromBase64 parses the transport encoding of a share.
func ShareFromBase64(text string) (*DecryptionShare, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, xerrors.Errorf("decoding share transport: %v: %w",
			err, ErrDeserialization)
	}
	return ShareFromBytes(data)
}

// SharesForVotePlan computes one member's decryption share for every
// proposal of the plan whose tally is still encrypted, preserving the
// proposal order. Proposals with public or already-decrypted tallies are
// skipped; a malformed encrypted tally aborts the whole bundle, since a
// missing share would break the threshold accounting downstream.
func SharesForVotePlan(plan *voteplan.VotePlan, secret kyber.Scalar) (
	*MemberShares, error) {
	member, err := memberIdentity(secret)
	if err != nil {
		return nil, err
	}
	bundle := &MemberShares{Member: member}
	for _, prop := range plan.Proposals {
		text, ok := prop.EncryptedTally()
		if !ok {
			continue
		}
		et, err := TallyFromBase64(text)
		if err != nil {
			return nil, xerrors.Errorf("proposal %s: %w", prop.ProposalID, err)
		}
		_, share, err := ShareForTally(et, secret)
		if err != nil {
			return nil, xerrors.Errorf("proposal %s: %w", prop.ProposalID, err)
		}
		encoded, err := share.Base64()
		if err != nil {
			return nil, xerrors.Errorf("proposal %s: %v", prop.ProposalID, err)
		}
		bundle.Proposals = append(bundle.Proposals, ProposalShares{
			ProposalID: prop.ProposalID,
			Shares:     []string{encoded},
		})
	}
	return bundle, nil
}
