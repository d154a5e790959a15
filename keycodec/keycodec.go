// Package keycodec implements the tagged text encoding used to exchange
// committee key material. Every key kind carries its own bech32
// human-readable part so that a key of one kind can never be mistaken
// for another when decoded.
package keycodec

import (
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/xerrors"
)

// Tags for the supported key kinds. Decoding enforces an exact match, so
// a member secret key can never be accepted where a communication key is
// expected.
const (
	CommunicationKeyTag = "p256k1_vcommsk"
	MemberSecretKeyTag  = "p256k1_membersk"
	VotePublicKeyTag    = "p256k1_votepk"
)

var (
	// ErrFormat signals text that is not a valid tagged encoding.
	ErrFormat = xerrors.New("malformed key encoding")
	// ErrTagMismatch signals a well-formed encoding of the wrong kind.
	ErrTagMismatch = xerrors.New("key tag mismatch")
)

// Encoder is implemented by key material that renders itself as a tagged
// text string.
type Encoder interface {
	EncodeText() (string, error)
}

// Encode renders raw key bytes as a tagged bech32 string.
func Encode(tag string, raw []byte) (string, error) {
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", xerrors.Errorf("converting key bytes: %v: %w", err, ErrFormat)
	}
	text, err := bech32.Encode(tag, conv)
	if err != nil {
		return "", xerrors.Errorf("encoding bech32: %v: %w", err, ErrFormat)
	}
	return text, nil
}

// Decode parses a tagged bech32 string and returns the raw key bytes.
// The decoded tag must equal the expected one.
func Decode(expected string, text string) ([]byte, error) {
	tag, data, err := bech32.Decode(text)
	if err != nil {
		return nil, xerrors.Errorf("decoding bech32: %v: %w", err, ErrFormat)
	}
	if tag != expected {
		return nil, xerrors.Errorf("got tag %s, expected %s: %w",
			tag, expected, ErrTagMismatch)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, xerrors.Errorf("converting key bytes: %v: %w", err, ErrFormat)
	}
	return raw, nil
}
