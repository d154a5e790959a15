package committee

import (
	"crypto/cipher"

	"github.com/dedis/privtally/keycodec"
	"github.com/dedis/privtally/utils"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"golang.org/x/xerrors"
)

// CommunicationKeyPair secures the internal messages of the
// key-generation protocol. It is generated once per member and never
// leaves that member.
type CommunicationKeyPair struct {
	Secret kyber.Scalar
	Public kyber.Point
}

// NewCommunicationKeyPair draws a fresh communication key pair from rand.
func NewCommunicationKeyPair(rand cipher.Stream) CommunicationKeyPair {
	secret := cothority.Suite.Scalar().Pick(rand)
	return CommunicationKeyPair{
		Secret: secret,
		Public: cothority.Suite.Point().Mul(secret, nil),
	}
}

// EncodeText renders the secret communication key as a tagged string.
func (c CommunicationKeyPair) EncodeText() (string, error) {
	buf, err := c.Secret.MarshalBinary()
	if err != nil {
		return "", xerrors.Errorf("marshalling communication key: %v", err)
	}
	return keycodec.Encode(keycodec.CommunicationKeyTag, buf)
}

// encryptedShare is one evaluation of a member's secret polynomial,
// blinded for the recipient's communication key. The blinding is a
// DH-derived scalar so that arbitrary 32-byte shares fit, which a
// point-embedding ElGamal ciphertext cannot hold.
type encryptedShare struct {
	K kyber.Point  // ephemeral DH public key
	C kyber.Scalar // share plus blinding scalar
}

// memberState is the outcome of one member's run of the verifiable
// secret-sharing step: its long-term secret share, the matching public
// key and the commitments that let other participants check the shares
// it dealt.
type memberState struct {
	index   int
	secret  kyber.Scalar
	public  kyber.Point
	commits []kyber.Point
	dealt   []encryptedShare
}

// newMemberState runs the secret-sharing step for the participant at the
// given index. The polynomial has degree threshold-1 and is committed
// against the common reference point; one blinded share per participant
// is dealt under the communication public keys.
func newMemberState(rand cipher.Stream, threshold int, crs kyber.Point,
	commKeys []kyber.Point, index int) (*memberState, error) {
	if index < 0 || index >= len(commKeys) {
		return nil, xerrors.Errorf("participant index %d out of range", index)
	}
	priPoly := share.NewPriPoly(cothority.Suite, threshold, nil, rand)
	pubPoly := priPoly.Commit(crs)
	_, commits := pubPoly.Info()

	dealt := make([]encryptedShare, len(commKeys))
	for j, pub := range commKeys {
		sh := priPoly.Eval(j)
		k := cothority.Suite.Scalar().Pick(rand)
		K := cothority.Suite.Point().Mul(k, nil)
		blind, err := utils.HashPoint(cothority.Suite.Point().Mul(k, pub))
		if err != nil {
			return nil, xerrors.Errorf("blinding share %d: %v", j, err)
		}
		b := cothority.Suite.Scalar().SetBytes(blind)
		dealt[j] = encryptedShare{
			K: K,
			C: cothority.Suite.Scalar().Add(sh.V, b),
		}
	}

	secret := priPoly.Eval(index).V
	return &memberState{
		index:   index,
		secret:  secret,
		public:  cothority.Suite.Point().Mul(secret, nil),
		commits: commits,
		dealt:   dealt,
	}, nil
}

func publicOf(secret kyber.Scalar) kyber.Point {
	return cothority.Suite.Point().Mul(secret, nil)
}

// openShare recovers the share dealt to the participant owning the given
// communication secret key.
func (es encryptedShare) openShare(commSecret kyber.Scalar) (kyber.Scalar, error) {
	blind, err := utils.HashPoint(cothority.Suite.Point().Mul(commSecret, es.K))
	if err != nil {
		return nil, xerrors.Errorf("unblinding share: %v", err)
	}
	b := cothority.Suite.Scalar().SetBytes(blind)
	return cothority.Suite.Scalar().Sub(es.C, b), nil
}
