package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/util/key"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func TestElGamal_Roundtrip(t *testing.T) {
	kp := key.NewKeyPair(cothority.Suite)
	msg := []byte("Go Badgers!")
	egp := ElGamalEncrypt(kp.Public, msg, random.New())
	M := ElGamalDecrypt(kp.Private, egp)
	data, err := M.Data()
	require.NoError(t, err)
	require.Equal(t, msg, data)
}

func TestLiftedElGamal_Homomorphic(t *testing.T) {
	kp := key.NewKeyPair(cothority.Suite)
	a := LiftedElGamalEncrypt(kp.Public, 3, random.New())
	b := LiftedElGamalEncrypt(kp.Public, 4, random.New())

	sum := NullElGamalPair()
	sum.Add(sum, a)
	sum.Add(sum, b)

	M := ElGamalDecrypt(kp.Private, sum)
	seven := cothority.Suite.Point().Mul(cothority.Suite.Scalar().SetInt64(7), nil)
	require.True(t, M.Equal(seven))
}

func TestHashPoints(t *testing.T) {
	kp := key.NewKeyPair(cothority.Suite)
	h1, err := HashPoint(kp.Public)
	require.NoError(t, err)
	h2, err := HashPoints([]kyber.Point{kp.Public})
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
