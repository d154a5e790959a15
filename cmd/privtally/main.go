// privtally is the command line interface of the committee threshold
// decryption tooling: it generates committee key material, produces
// per-member decryption shares for encrypted tallies and merges the
// shares collected from several members.
package main

import (
	"fmt"
	"os"

	"github.com/dedis/privtally/committee"
	"github.com/dedis/privtally/tally"
	"github.com/dedis/privtally/voteplan"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	app := cli.NewApp()
	app.Name = "privtally"
	app.Usage = "committee tooling for privacy-preserving ballot tallies"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "debug, d",
			Value: 0,
			Usage: "debug-level: `integer`: 1 for terse, 5 for maximal",
		},
	}
	app.Commands = cli.Commands{
		{
			Name:  "keygen",
			Usage: "generate key material for a whole committee roster",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "committee roster configuration in `FILE.toml`",
				},
				cli.StringFlag{
					Name:  "output, o",
					Value: "committee-keys",
					Usage: "directory receiving the per-identity key files",
				},
				cli.StringFlag{
					Name:  "db",
					Usage: "optionally also store the material in this keystore `FILE`",
				},
			},
			Action: keygen,
		},
		{
			Name:  "decryption-share",
			Usage: "produce one member's share for a single encrypted tally",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "tally, t",
					Usage: "base64 encrypted tally `FILE` (default: standard input)",
				},
				cli.StringFlag{
					Name:  "key, k",
					Usage: "tagged member secret key `FILE`",
				},
			},
			Action: decryptionShare,
		},
		{
			Name:  "decryption-shares",
			Usage: "produce one member's shares for every private proposal of a vote plan",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "vote-plan",
					Usage: "vote plan JSON `FILE` (default: standard input)",
				},
				cli.StringFlag{
					Name:  "vote-plan-id",
					Usage: "id of the vote plan to decrypt; optional with a single plan",
				},
				cli.StringFlag{
					Name:  "key, k",
					Usage: "tagged member secret key `FILE`",
				},
			},
			Action: decryptionShares,
		},
		{
			Name:      "merge-shares",
			Usage:     "merge the share bundles of several members into one document",
			ArgsUsage: "BUNDLE.json...",
			Action:    mergeShares,
		},
	}
	app.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.GlobalInt("debug"))
		return nil
	}
	err := app.Run(os.Args)
	log.ErrFatal(err)
}

func keygen(c *cli.Context) error {
	cfgPath := c.String("config")
	if cfgPath == "" {
		return xerrors.New("--config is required")
	}
	cfg, err := loadRosterConfig(cfgPath)
	if err != nil {
		return err
	}
	roster, threshold, policy, err := cfg.committee()
	if err != nil {
		return err
	}

	materials, err := committee.Generate(roster, threshold, policy,
		random.New())
	if err != nil {
		return xerrors.Errorf("generating key material: %w", err)
	}

	outDir := c.String("output")
	if err := committee.WriteDirectory(outDir, materials); err != nil {
		return xerrors.Errorf("writing key material: %w", err)
	}
	if db := c.String("db"); db != "" {
		store, err := committee.OpenStore(db)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, km := range materials {
			if err := store.Put(km); err != nil {
				return xerrors.Errorf("storing %s: %w", km.Alias, err)
			}
		}
	}

	for _, km := range materials {
		// String redacts the secret components.
		fmt.Println(km.String())
	}
	log.Lvl2("key material written to", outDir)
	return nil
}

func decryptionShare(c *cli.Context) error {
	text, err := readLine(c.String("tally"))
	if err != nil {
		return err
	}
	et, err := tally.TallyFromBase64(text)
	if err != nil {
		return xerrors.Errorf("reading encrypted tally: %w", err)
	}
	secret, err := readSecretKey(c.String("key"))
	if err != nil {
		return err
	}
	_, share, err := tally.ShareForTally(et, secret)
	if err != nil {
		return xerrors.Errorf("computing share: %w", err)
	}
	out, err := share.Base64()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func decryptionShares(c *cli.Context) error {
	plans, err := voteplan.LoadFile(c.String("vote-plan"))
	if err != nil {
		return err
	}
	plan, err := voteplan.ByID(plans, c.String("vote-plan-id"))
	if err != nil {
		return err
	}
	secret, err := readSecretKey(c.String("key"))
	if err != nil {
		return err
	}
	bundle, err := tally.SharesForVotePlan(plan, secret)
	if err != nil {
		return xerrors.Errorf("vote plan %s: %w", plan.ID, err)
	}
	return bundle.WriteJSON(os.Stdout)
}

func mergeShares(c *cli.Context) error {
	paths := c.Args()
	if len(paths) == 0 {
		return xerrors.New("at least one bundle file is required")
	}
	bundles := make([]*tally.MemberShares, len(paths))
	for i, path := range paths {
		bundle, err := tally.ReadMemberSharesFile(path)
		if err != nil {
			return err
		}
		bundles[i] = bundle
	}
	merged, err := tally.Merge(bundles)
	if err != nil {
		return xerrors.Errorf("merging shares: %w", err)
	}
	return merged.WriteJSON(os.Stdout)
}
