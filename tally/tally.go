// Package tally implements the decryption-share side of the committee
// threshold decryption scheme: turning an encrypted tally and one
// member's secret share into that member's partial decryption share, and
// pooling the shares contributed by several members into the input of
// the final tally opening.
package tally

import (
	"bytes"
	"crypto/cipher"
	"encoding/base64"

	"github.com/dedis/privtally/utils"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// ErrMalformedTally signals bytes that do not parse as an encrypted
// tally for the scheme.
var ErrMalformedTally = xerrors.New("malformed encrypted tally")

// EncryptedTally is the homomorphically-aggregated ciphertext of all
// votes for one proposal, one ElGamal pair per voting option.
type EncryptedTally struct {
	Pairs []utils.ElGamalPair
}

// pairSize is the binary size of one ciphertext element.
func pairSize() int {
	return 2 * cothority.Suite.PointLen()
}

// NewEncryptedTally returns the neutral tally for the given number of
// options, ready for homomorphic aggregation.
func NewEncryptedTally(options int) *EncryptedTally {
	pairs := make([]utils.ElGamalPair, options)
	for i := range pairs {
		pairs[i] = utils.NullElGamalPair()
	}
	return &EncryptedTally{Pairs: pairs}
}

// EncryptVote encrypts a ballot for the given choice under the election
// public key: a lifted-ElGamal unit vector with a one at the chosen
// option. Ballots share the tally shape so they can be added directly.
func EncryptVote(electionKey kyber.Point, options, choice int,
	rand cipher.Stream) (*EncryptedTally, error) {
	if choice < 0 || choice >= options {
		return nil, xerrors.Errorf("choice %d out of %d options", choice,
			options)
	}
	pairs := make([]utils.ElGamalPair, options)
	for i := range pairs {
		var value uint64
		if i == choice {
			value = 1
		}
		pairs[i] = utils.LiftedElGamalEncrypt(electionKey, value, rand)
	}
	return &EncryptedTally{Pairs: pairs}, nil
}

// Add accumulates another tally (or ballot) of the same shape.
func (t *EncryptedTally) Add(other *EncryptedTally) error {
	if len(t.Pairs) != len(other.Pairs) {
		return xerrors.Errorf("mismatched option counts %d and %d",
			len(t.Pairs), len(other.Pairs))
	}
	for i := range t.Pairs {
		t.Pairs[i].Add(t.Pairs[i], other.Pairs[i])
	}
	return nil
}

// MarshalBinary renders the tally as the plain concatenation of its
// ciphertext elements, without any length prefix.
func (t *EncryptedTally) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, p := range t.Pairs {
		if _, err := p.K.MarshalTo(&buf); err != nil {
			return nil, xerrors.Errorf("marshalling tally: %v", err)
		}
		if _, err := p.C.MarshalTo(&buf); err != nil {
			return nil, xerrors.Errorf("marshalling tally: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// Base64 renders the tally in its transport encoding.
func (t *EncryptedTally) Base64() (string, error) {
	buf, err := t.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// TallyFromBytes parses the binary tally encoding.
func TallyFromBytes(data []byte) (*EncryptedTally, error) {
	size := pairSize()
	if len(data) == 0 || len(data)%size != 0 {
		return nil, xerrors.Errorf("tally has %d bytes, expected a"+
			" positive multiple of %d: %w", len(data), size, ErrMalformedTally)
	}
	pairs := make([]utils.ElGamalPair, len(data)/size)
	for i := range pairs {
		chunk := data[i*size:]
		K := cothority.Suite.Point()
		if err := K.UnmarshalBinary(chunk[:size/2]); err != nil {
			return nil, xerrors.Errorf("element %d: %v: %w", i, err,
				ErrMalformedTally)
		}
		C := cothority.Suite.Point()
		if err := C.UnmarshalBinary(chunk[size/2 : size]); err != nil {
			return nil, xerrors.Errorf("element %d: %v: %w", i, err,
				ErrMalformedTally)
		}
		pairs[i] = utils.ElGamalPair{K: K, C: C}
	}
	return &EncryptedTally{Pairs: pairs}, nil
}

// TallyFromBase64 parses the transport encoding of a tally.
func TallyFromBase64(text string) (*EncryptedTally, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, xerrors.Errorf("decoding tally transport: %v: %w",
			err, ErrMalformedTally)
	}
	return TallyFromBytes(data)
}
