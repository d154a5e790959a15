package tally

import (
	"testing"

	"github.com/dedis/privtally/committee"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

// aggregateVotes builds an encrypted tally under the given election key
// from a list of cast choices.
func aggregateVotes(t *testing.T, electionKey kyber.Point, options int,
	choices []int) *EncryptedTally {
	agg := NewEncryptedTally(options)
	for _, choice := range choices {
		ballot, err := EncryptVote(electionKey, options, choice, random.New())
		require.NoError(t, err)
		require.NoError(t, agg.Add(ballot))
	}
	return agg
}

func singleMemberKey(t *testing.T) committee.KeyMaterial {
	roster, err := committee.NewRoster([]committee.Member{
		{Alias: "solo", ID: "id-solo"},
	})
	require.NoError(t, err)
	materials, err := committee.Generate(roster, 1,
		committee.ElectionKeySingle, random.New())
	require.NoError(t, err)
	return materials[0]
}

func TestShareForTally_Deterministic(t *testing.T) {
	km := singleMemberKey(t)
	et := aggregateVotes(t, km.ElectionKey, 3, []int{0, 2, 2})

	_, first, err := ShareForTally(et, km.SecretShare)
	require.NoError(t, err)
	_, second, err := ShareForTally(et, km.SecretShare)
	require.NoError(t, err)

	b1, err := first.MarshalBinary()
	require.NoError(t, err)
	b2, err := second.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestShareForTally_Malformed(t *testing.T) {
	km := singleMemberKey(t)

	_, _, err := ShareForTally(nil, km.SecretShare)
	require.True(t, xerrors.Is(err, ErrMalformedTally))
	_, _, err = ShareForTally(&EncryptedTally{}, km.SecretShare)
	require.True(t, xerrors.Is(err, ErrMalformedTally))

	for _, data := range [][]byte{
		nil,
		make([]byte, 63),
		make([]byte, pairSize()+1),
	} {
		_, err := TallyFromBytes(data)
		require.True(t, xerrors.Is(err, ErrMalformedTally))
	}

	_, err = TallyFromBase64("not base64!!")
	require.True(t, xerrors.Is(err, ErrMalformedTally))
}

func TestTally_CodecRoundtrip(t *testing.T) {
	km := singleMemberKey(t)
	et := aggregateVotes(t, km.ElectionKey, 2, []int{1, 1, 0})

	text, err := et.Base64()
	require.NoError(t, err)
	back, err := TallyFromBase64(text)
	require.NoError(t, err)
	require.Len(t, back.Pairs, 2)
	for i := range back.Pairs {
		require.True(t, back.Pairs[i].K.Equal(et.Pairs[i].K))
		require.True(t, back.Pairs[i].C.Equal(et.Pairs[i].C))
	}
}

func TestShareForTally_EndToEnd(t *testing.T) {
	km := singleMemberKey(t)
	// 5 votes over 3 options: counts 2/0/3.
	et := aggregateVotes(t, km.ElectionKey, 3, []int{0, 2, 2, 0, 2})

	state, share, err := ShareForTally(et, km.SecretShare)
	require.NoError(t, err)
	require.True(t, VerifyShare(et, km.PublicKey, share))

	counts, err := state.Counts(10)
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 0, 3}, counts)

	_, err = state.Counts(2)
	require.Error(t, err)
}

func TestVerifyShare_RejectsForgery(t *testing.T) {
	km := singleMemberKey(t)
	et := aggregateVotes(t, km.ElectionKey, 2, []int{0, 1})

	_, share, err := ShareForTally(et, km.SecretShare)
	require.NoError(t, err)

	// Wrong public key.
	other := key.NewKeyPair(cothority.Suite)
	require.False(t, VerifyShare(et, other.Public, share))

	// Share computed with a different secret.
	_, forged, err := ShareForTally(et, other.Private)
	require.NoError(t, err)
	require.False(t, VerifyShare(et, km.PublicKey, forged))

	// Share for a different tally.
	otherTally := aggregateVotes(t, km.ElectionKey, 2, []int{1, 1})
	require.False(t, VerifyShare(otherTally, km.PublicKey, share))
}

func TestShare_CodecRoundtrip(t *testing.T) {
	km := singleMemberKey(t)
	et := aggregateVotes(t, km.ElectionKey, 3, []int{1})

	_, share, err := ShareForTally(et, km.SecretShare)
	require.NoError(t, err)

	text, err := share.Base64()
	require.NoError(t, err)
	back, err := ShareFromBase64(text)
	require.NoError(t, err)
	require.True(t, VerifyShare(et, km.PublicKey, back))

	_, err = ShareFromBytes(make([]byte, elementSize()-1))
	require.True(t, xerrors.Is(err, ErrDeserialization))
	_, err = ShareFromBase64("???")
	require.True(t, xerrors.Is(err, ErrDeserialization))
}
