package utils

import (
	"crypto/cipher"
	"crypto/sha256"

	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

// Utility functions for ElGamalPair

type ElGamalPair struct {
	K kyber.Point // C1
	C kyber.Point // C2
}

type ElGamalPairs struct {
	Pairs []ElGamalPair
}

// ElGamalEncrypt performs the ElGamal encryption algorithm on an embedded
// message point.
func ElGamalEncrypt(public kyber.Point, message []byte, rand cipher.Stream) ElGamalPair {
	if len(message) > cothority.Suite.Point().EmbedLen() {
		panic("message size is too long")
	}
	M := cothority.Suite.Point().Embed(message, rand)

	// ElGamal-encrypt the point to produce ciphertext (K,C).
	egp := ElGamalPair{}
	k := cothority.Suite.Scalar().Pick(rand)    // ephemeral private key
	egp.K = cothority.Suite.Point().Mul(k, nil) // ephemeral DH public key
	S := cothority.Suite.Point().Mul(k, public) // ephemeral DH shared secret
	egp.C = S.Add(S, M)                         // message blinded with secret
	return egp
}

// ElGamalDecrypt performs the ElGamal decryption algorithm.
func ElGamalDecrypt(private kyber.Scalar, egp ElGamalPair) kyber.Point {
	S := cothority.Suite.Point().Mul(private, egp.K) // regenerate shared secret
	return cothority.Suite.Point().Sub(egp.C, S)     // use to un-blind the message
}

// LiftedElGamalEncrypt encrypts a counter in the exponent so that
// ciphertexts can be summed homomorphically before decryption.
func LiftedElGamalEncrypt(public kyber.Point, value uint64, rand cipher.Stream) ElGamalPair {
	m := cothority.Suite.Scalar().SetInt64(int64(value))
	M := cothority.Suite.Point().Mul(m, nil)

	egp := ElGamalPair{}
	k := cothority.Suite.Scalar().Pick(rand)
	egp.K = cothority.Suite.Point().Mul(k, nil)
	S := cothority.Suite.Point().Mul(k, public)
	egp.C = S.Add(S, M)
	return egp
}

// Add sets the pair to the component-wise sum of a and b.
func (egp *ElGamalPair) Add(a, b ElGamalPair) *ElGamalPair {
	egp.K = cothority.Suite.Point().Add(a.K, b.K)
	egp.C = cothority.Suite.Point().Add(a.C, b.C)
	return egp
}

// NullElGamalPair returns the neutral element for homomorphic addition.
func NullElGamalPair() ElGamalPair {
	return ElGamalPair{
		K: cothority.Suite.Point().Null(),
		C: cothority.Suite.Point().Null(),
	}
}

func (ps *ElGamalPairs) Hash() ([]byte, error) {
	h := sha256.New()
	for _, p := range ps.Pairs {
		bufK, err := p.K.MarshalBinary()
		if err != nil {
			return nil, err
		}
		bufC, err := p.C.MarshalBinary()
		if err != nil {
			return nil, err
		}
		h.Write(bufK)
		h.Write(bufC)
	}
	return h.Sum(nil), nil
}

func HashString(val string) []byte {
	h := sha256.New()
	h.Write([]byte(val))
	return h.Sum(nil)
}

func HashPoint(p kyber.Point) ([]byte, error) {
	buf, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write(buf)
	return h.Sum(nil), nil
}

func HashPoints(ps []kyber.Point) ([]byte, error) {
	h := sha256.New()
	for _, ptext := range ps {
		data, err := ptext.MarshalBinary()
		if err != nil {
			return nil, xerrors.Errorf("couldn't marshal point: %v", err)
		}
		h.Write(data)
	}
	return h.Sum(nil), nil
}
