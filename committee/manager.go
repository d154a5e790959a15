package committee

import (
	"crypto/cipher"
	"fmt"

	"github.com/dedis/privtally/keycodec"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"golang.org/x/xerrors"
)

var (
	// ErrInvalidThreshold signals a threshold outside 1..len(roster).
	ErrInvalidThreshold = xerrors.New("invalid threshold")
	// ErrInvalidKeyPolicy signals a Generate call that did not state how
	// the encrypting key of each identity is derived.
	ErrInvalidKeyPolicy = xerrors.New("election key policy not set")
)

// ElectionKeyPolicy states how the encrypting (election) public key of a
// committee identity is derived. There is no default: callers must make
// the choice explicit, because the two policies give the threshold
// parameter a very different meaning.
type ElectionKeyPolicy int

const (
	// ElectionKeySingle derives each identity's encrypting key from that
	// member's own public key alone. Each identity is then its own
	// single-member sub-committee and the threshold has no effect on its
	// decryption.
	ElectionKeySingle ElectionKeyPolicy = iota + 1
	// ElectionKeyAggregate derives one encrypting key from the public
	// keys of the whole roster, so that decryption genuinely requires
	// threshold many members.
	ElectionKeyAggregate
)

// KeyMaterial is the full key set generated for one committee member.
// SecretShare and Communication.Secret must be kept private by the
// member; PublicKey and ElectionKey are publishable.
type KeyMaterial struct {
	Alias         string
	ID            string
	Communication CommunicationKeyPair
	SecretShare   kyber.Scalar
	PublicKey     kyber.Point
	ElectionKey   kyber.Point
}

// String renders only the public components. Secret scalars are
// redacted; this is an invariant of the type, not a formatting choice.
func (k KeyMaterial) String() string {
	return fmt.Sprintf("KeyMaterial{alias: %s, id: %s, communication public"+
		" key: %v, member public key: %v, election key: %v}",
		k.Alias, k.ID, k.Communication.Public, k.PublicKey, k.ElectionKey)
}

// EncodeSecretShare renders the member secret share as a tagged string.
func (k KeyMaterial) EncodeSecretShare() (string, error) {
	buf, err := k.SecretShare.MarshalBinary()
	if err != nil {
		return "", xerrors.Errorf("marshalling secret share: %v", err)
	}
	return keycodec.Encode(keycodec.MemberSecretKeyTag, buf)
}

// EncodePublicKey renders the member public key as a tagged string.
func (k KeyMaterial) EncodePublicKey() (string, error) {
	return EncodePublicKey(k.PublicKey)
}

// EncodeElectionKey renders the encrypting key as a tagged string.
func (k KeyMaterial) EncodeElectionKey() (string, error) {
	return EncodePublicKey(k.ElectionKey)
}

// EncodePublicKey renders any member or election public key as a tagged
// string.
func EncodePublicKey(p kyber.Point) (string, error) {
	buf, err := p.MarshalBinary()
	if err != nil {
		return "", xerrors.Errorf("marshalling public key: %v", err)
	}
	return keycodec.Encode(keycodec.VotePublicKeyTag, buf)
}

// DecodeSecretShare parses a tagged member secret key string.
func DecodeSecretShare(text string) (kyber.Scalar, error) {
	buf, err := keycodec.Decode(keycodec.MemberSecretKeyTag, text)
	if err != nil {
		return nil, err
	}
	if len(buf) != cothority.Suite.ScalarLen() {
		return nil, xerrors.Errorf("secret share has %d bytes instead of"+
			" %d: %w", len(buf), cothority.Suite.ScalarLen(), keycodec.ErrFormat)
	}
	return cothority.Suite.Scalar().SetBytes(buf), nil
}

// DecodePublicKey parses a tagged member or election public key string.
func DecodePublicKey(text string) (kyber.Point, error) {
	buf, err := keycodec.Decode(keycodec.VotePublicKeyTag, text)
	if err != nil {
		return nil, err
	}
	p := cothority.Suite.Point()
	if err := p.UnmarshalBinary(buf); err != nil {
		return nil, xerrors.Errorf("unmarshalling public key: %v: %w",
			err, keycodec.ErrFormat)
	}
	return p, nil
}

// DecodeCommunicationKey parses a tagged communication secret key string.
func DecodeCommunicationKey(text string) (CommunicationKeyPair, error) {
	buf, err := keycodec.Decode(keycodec.CommunicationKeyTag, text)
	if err != nil {
		return CommunicationKeyPair{}, err
	}
	if len(buf) != cothority.Suite.ScalarLen() {
		return CommunicationKeyPair{}, xerrors.Errorf("communication key"+
			" has %d bytes instead of %d: %w", len(buf),
			cothority.Suite.ScalarLen(), keycodec.ErrFormat)
	}
	secret := cothority.Suite.Scalar().SetBytes(buf)
	return CommunicationKeyPair{
		Secret: secret,
		Public: cothority.Suite.Point().Mul(secret, nil),
	}, nil
}

// ElectionKeyFromParticipants aggregates the public keys of the
// participant set designated for one committee identity.
func ElectionKeyFromParticipants(publics []kyber.Point) kyber.Point {
	agg := cothority.Suite.Point().Null()
	for _, p := range publics {
		agg = agg.Add(agg, p)
	}
	return agg
}

// Generate runs the distributed key generation for the whole roster and
// returns one KeyMaterial per member, in roster order. The computation
// consumes only the given random stream, so a fixed stream yields a
// reproducible result. Nothing is persisted here; storing the material
// is the caller's responsibility.
func Generate(roster *Roster, threshold int, policy ElectionKeyPolicy,
	rand cipher.Stream) ([]KeyMaterial, error) {
	if roster == nil || roster.Len() == 0 {
		return nil, xerrors.Errorf("empty roster: %w", ErrInvalidThreshold)
	}
	if threshold < 1 || threshold > roster.Len() {
		return nil, xerrors.Errorf("threshold %d for %d members: %w",
			threshold, roster.Len(), ErrInvalidThreshold)
	}
	if policy != ElectionKeySingle && policy != ElectionKeyAggregate {
		return nil, ErrInvalidKeyPolicy
	}

	// Common reference point shared by every member's commitment step.
	crs := cothority.Suite.Point().Pick(rand)

	members := roster.Members()
	commPairs := make([]CommunicationKeyPair, len(members))
	commKeys := make([]kyber.Point, len(members))
	for i := range members {
		commPairs[i] = NewCommunicationKeyPair(rand)
		commKeys[i] = commPairs[i].Public
	}

	states := make([]*memberState, len(members))
	for i := range members {
		ms, err := newMemberState(rand, threshold, crs, commKeys, i)
		if err != nil {
			return nil, xerrors.Errorf("generating member %s: %v",
				members[i].Alias, err)
		}
		states[i] = ms
	}

	var aggregate kyber.Point
	if policy == ElectionKeyAggregate {
		publics := make([]kyber.Point, len(states))
		for i, ms := range states {
			publics[i] = ms.public
		}
		aggregate = ElectionKeyFromParticipants(publics)
	}

	out := make([]KeyMaterial, len(members))
	for i, m := range members {
		electionKey := aggregate
		if policy == ElectionKeySingle {
			electionKey = ElectionKeyFromParticipants(
				[]kyber.Point{states[i].public})
		}
		out[i] = KeyMaterial{
			Alias:         m.Alias,
			ID:            m.ID,
			Communication: commPairs[i],
			SecretShare:   states[i].secret,
			PublicKey:     states[i].public,
			ElectionKey:   electionKey,
		}
	}
	return out, nil
}
