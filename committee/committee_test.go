package committee

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dedis/privtally/keycodec"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/blake2xb"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func testRoster(t *testing.T, n int) *Roster {
	members := make([]Member, n)
	for i := range members {
		members[i] = Member{
			Alias: fmt.Sprintf("member-%d", i),
			ID:    fmt.Sprintf("id-%d", i),
		}
	}
	roster, err := NewRoster(members)
	require.NoError(t, err)
	return roster
}

func TestNewRoster_Validation(t *testing.T) {
	_, err := NewRoster(nil)
	require.Error(t, err)

	_, err = NewRoster([]Member{{Alias: "a", ID: "x"}, {Alias: "b", ID: "x"}})
	require.Error(t, err)

	_, err = NewRoster([]Member{{Alias: "a", ID: ""}})
	require.Error(t, err)

	roster := testRoster(t, 3)
	idx, ok := roster.Index("id-1")
	require.True(t, ok)
	require.Equal(t, 1, idx)
	_, ok = roster.Index("stranger")
	require.False(t, ok)
}

func TestGenerate_ThresholdGrid(t *testing.T) {
	for n := 1; n <= 5; n++ {
		roster := testRoster(t, n)
		for threshold := 1; threshold <= n; threshold++ {
			materials, err := Generate(roster, threshold,
				ElectionKeyAggregate, random.New())
			require.NoError(t, err)
			require.Len(t, materials, n)

			seen := make(map[string]bool)
			for i, km := range materials {
				require.Equal(t, roster.Members()[i].ID, km.ID)
				buf, err := km.SecretShare.MarshalBinary()
				require.NoError(t, err)
				require.False(t, seen[string(buf)],
					"secret shares must be distinct")
				seen[string(buf)] = true

				// The public key is derivable from the secret share.
				require.True(t, km.PublicKey.Equal(
					cothority.Suite.Point().Mul(km.SecretShare, nil)))
			}
		}
	}
}

func TestGenerate_InvalidThreshold(t *testing.T) {
	roster := testRoster(t, 4)
	for _, threshold := range []int{-1, 0, 5, 42} {
		materials, err := Generate(roster, threshold, ElectionKeySingle,
			random.New())
		require.Error(t, err)
		require.True(t, xerrors.Is(err, ErrInvalidThreshold))
		require.Nil(t, materials)
	}
}

func TestGenerate_RequiresKeyPolicy(t *testing.T) {
	roster := testRoster(t, 3)
	_, err := Generate(roster, 2, 0, random.New())
	require.True(t, xerrors.Is(err, ErrInvalidKeyPolicy))
}

func TestGenerate_KeyPolicies(t *testing.T) {
	roster := testRoster(t, 3)

	single, err := Generate(roster, 2, ElectionKeySingle, random.New())
	require.NoError(t, err)
	for _, km := range single {
		require.True(t, km.ElectionKey.Equal(km.PublicKey))
	}

	agg, err := Generate(roster, 2, ElectionKeyAggregate, random.New())
	require.NoError(t, err)
	expected := cothority.Suite.Point().Null()
	for _, km := range agg {
		expected = expected.Add(expected, km.PublicKey)
	}
	for _, km := range agg {
		require.True(t, km.ElectionKey.Equal(agg[0].ElectionKey))
	}
	require.True(t, agg[0].ElectionKey.Equal(expected))
}

func TestGenerate_Deterministic(t *testing.T) {
	roster := testRoster(t, 3)
	seed := []byte("fixed generation seed")

	first, err := Generate(roster, 2, ElectionKeyAggregate, blake2xb.New(seed))
	require.NoError(t, err)
	second, err := Generate(roster, 2, ElectionKeyAggregate, blake2xb.New(seed))
	require.NoError(t, err)

	for i := range first {
		require.True(t, first[i].SecretShare.Equal(second[i].SecretShare))
		require.True(t, first[i].PublicKey.Equal(second[i].PublicKey))
		require.True(t, first[i].ElectionKey.Equal(second[i].ElectionKey))
	}

	// A different stream yields independent key material.
	other, err := Generate(roster, 2, ElectionKeyAggregate,
		blake2xb.New([]byte("another seed")))
	require.NoError(t, err)
	require.False(t, first[0].SecretShare.Equal(other[0].SecretShare))
}

func TestMemberState_DealtShares(t *testing.T) {
	rand := random.New()
	crs := cothority.Suite.Point().Pick(rand)
	n, threshold := 4, 3

	pairs := make([]CommunicationKeyPair, n)
	commKeys := make([]kyber.Point, n)
	for i := range pairs {
		pairs[i] = NewCommunicationKeyPair(rand)
		commKeys[i] = pairs[i].Public
	}

	ms, err := newMemberState(rand, threshold, crs, commKeys, 0)
	require.NoError(t, err)
	require.Len(t, ms.commits, threshold)
	require.Len(t, ms.dealt, n)

	// Every recipient can open its share and check it against the
	// dealer's commitments.
	pubPoly := share.NewPubPoly(cothority.Suite, crs, ms.commits)
	for j := range commKeys {
		sh, err := ms.dealt[j].openShare(pairs[j].Secret)
		require.NoError(t, err)
		require.True(t, cothority.Suite.Point().Mul(sh, crs).Equal(
			pubPoly.Eval(j).V))
	}

	// Opening with the wrong communication key yields garbage.
	sh, err := ms.dealt[1].openShare(pairs[2].Secret)
	require.NoError(t, err)
	require.False(t, cothority.Suite.Point().Mul(sh, crs).Equal(
		pubPoly.Eval(1).V))
}

func TestKeyMaterial_StringRedactsSecrets(t *testing.T) {
	roster := testRoster(t, 2)
	materials, err := Generate(roster, 1, ElectionKeySingle, random.New())
	require.NoError(t, err)

	for _, km := range materials {
		rendered := km.String()
		secret, err := km.SecretShare.MarshalBinary()
		require.NoError(t, err)
		require.NotContains(t, rendered, fmt.Sprintf("%x", secret))
		comm, err := km.Communication.Secret.MarshalBinary()
		require.NoError(t, err)
		require.NotContains(t, rendered, fmt.Sprintf("%x", comm))
		require.Contains(t, rendered, km.Alias)
	}
}

func TestKeyMaterial_EncodeDecode(t *testing.T) {
	roster := testRoster(t, 2)
	materials, err := Generate(roster, 2, ElectionKeyAggregate, random.New())
	require.NoError(t, err)
	km := materials[0]

	text, err := km.EncodeSecretShare()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, keycodec.MemberSecretKeyTag+"1"))
	secret, err := DecodeSecretShare(text)
	require.NoError(t, err)
	require.True(t, secret.Equal(km.SecretShare))

	// A member secret key must never decode as a communication key.
	_, err = DecodeCommunicationKey(text)
	require.True(t, xerrors.Is(err, keycodec.ErrTagMismatch))

	pubText, err := km.EncodePublicKey()
	require.NoError(t, err)
	pub, err := DecodePublicKey(pubText)
	require.NoError(t, err)
	require.True(t, pub.Equal(km.PublicKey))

	commText, err := km.Communication.EncodeText()
	require.NoError(t, err)
	comm, err := DecodeCommunicationKey(commText)
	require.NoError(t, err)
	require.True(t, comm.Secret.Equal(km.Communication.Secret))
	require.True(t, comm.Public.Equal(km.Communication.Public))
}
