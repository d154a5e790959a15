package main

import (
	"github.com/BurntSushi/toml"
	"github.com/dedis/privtally/committee"
	"golang.org/x/xerrors"
)

// rosterConfig is the toml committee description consumed by keygen:
//
//	threshold = 2
//	election_key = "aggregate"
//
//	[[member]]
//	alias = "alice"
//	id = "ed25519_pk1..."
//
//	[[member]]
//	alias = "bob"
//	id = "ed25519_pk1..."
type rosterConfig struct {
	Threshold   int            `toml:"threshold"`
	ElectionKey string         `toml:"election_key"`
	Members     []memberConfig `toml:"member"`
}

type memberConfig struct {
	Alias string `toml:"alias"`
	ID    string `toml:"id"`
}

func loadRosterConfig(path string) (*rosterConfig, error) {
	cfg := &rosterConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, xerrors.Errorf("parsing %s: %v", path, err)
	}
	return cfg, nil
}

func (cfg *rosterConfig) committee() (*committee.Roster, int,
	committee.ElectionKeyPolicy, error) {
	members := make([]committee.Member, len(cfg.Members))
	for i, m := range cfg.Members {
		members[i] = committee.Member{Alias: m.Alias, ID: m.ID}
	}
	roster, err := committee.NewRoster(members)
	if err != nil {
		return nil, 0, 0, xerrors.Errorf("invalid roster: %w", err)
	}

	var policy committee.ElectionKeyPolicy
	switch cfg.ElectionKey {
	case "single":
		policy = committee.ElectionKeySingle
	case "aggregate":
		policy = committee.ElectionKeyAggregate
	case "":
		return nil, 0, 0, xerrors.New("election_key must be set to" +
			" \"single\" or \"aggregate\"")
	default:
		return nil, 0, 0, xerrors.Errorf("unknown election_key %q",
			cfg.ElectionKey)
	}
	return roster, cfg.Threshold, policy, nil
}
