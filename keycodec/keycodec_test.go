package keycodec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func TestEncode_Roundtrip(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x42}
	for _, tag := range []string{CommunicationKeyTag, MemberSecretKeyTag,
		VotePublicKeyTag} {
		text, err := Encode(tag, raw)
		require.NoError(t, err)
		back, err := Decode(tag, text)
		require.NoError(t, err)
		require.Equal(t, raw, back)
	}
}

func TestDecode_TagMismatch(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	text, err := Encode(MemberSecretKeyTag, raw)
	require.NoError(t, err)

	_, err = Decode(CommunicationKeyTag, text)
	require.Error(t, err)
	require.True(t, xerrors.Is(err, ErrTagMismatch))

	// The matching tag still round-trips to the original bytes.
	back, err := Decode(MemberSecretKeyTag, text)
	require.NoError(t, err)
	require.Equal(t, raw, back)
}

func TestDecode_Malformed(t *testing.T) {
	for _, text := range []string{
		"",
		"notbech32",
		"p256k1_membersk1qqqqqq", // bad checksum
	} {
		_, err := Decode(MemberSecretKeyTag, text)
		require.Error(t, err)
		require.True(t, xerrors.Is(err, ErrFormat))
	}
}

func TestDecode_CorruptedPayload(t *testing.T) {
	text, err := Encode(VotePublicKeyTag, []byte("some public key bytes"))
	require.NoError(t, err)
	corrupted := text[:len(text)-1] + "x"
	_, err = Decode(VotePublicKeyTag, corrupted)
	require.Error(t, err)
}
