package voteplan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

const sampleDoc = `[
  {
    "id": "a1b2c3",
    "payload": "private",
    "proposals": [
      {
        "index": 0,
        "proposal_id": "p0",
        "options": 3,
        "tally": {
          "private": {
            "state": {
              "encrypted": {"encrypted_tally": "AAAA", "total_stake": 100}
            }
          }
        }
      },
      {
        "index": 1,
        "proposal_id": "p1",
        "options": 2,
        "tally": {"public": {"results": [10, 20]}}
      },
      {
        "index": 2,
        "proposal_id": "p2",
        "options": 2,
        "tally": {
          "private": {"state": {"decrypted": {"results": [1, 2]}}}
        }
      }
    ]
  },
  {"id": "d4e5f6", "payload": "public", "proposals": []}
]`

func TestLoad(t *testing.T) {
	plans, err := Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Len(t, plans[0].Proposals, 3)

	enc, ok := plans[0].Proposals[0].EncryptedTally()
	require.True(t, ok)
	require.Equal(t, "AAAA", enc)

	// Public and already-decrypted tallies have no encrypted state.
	_, ok = plans[0].Proposals[1].EncryptedTally()
	require.False(t, ok)
	_, ok = plans[0].Proposals[2].EncryptedTally()
	require.False(t, ok)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestByID(t *testing.T) {
	plans, err := Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	plan, err := ByID(plans, "d4e5f6")
	require.NoError(t, err)
	require.Equal(t, "d4e5f6", plan.ID)

	_, err = ByID(plans, "")
	require.True(t, xerrors.Is(err, ErrAmbiguous))

	_, err = ByID(plans, "missing")
	require.True(t, xerrors.Is(err, ErrNotFound))

	only, err := ByID(plans[:1], "")
	require.NoError(t, err)
	require.Equal(t, "a1b2c3", only.ID)
}
