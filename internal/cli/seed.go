package cli

import (
	"context"

	"grc-risk/internal/config"

	"github.com/urfave/cli/v3"
)

func cmdSeed() *cli.Command {
	var (
		dbCfg   config.Database
		seedCfg config.Seed
	)

	return &cli.Command{
		Name:  "seed",
		Usage: "Insert seed risks into an empty database and exit",
		Flags: joinFlags(
			dbCfg.Flags(),
			seedCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := openStore(ctx, &dbCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return runSeed(ctx, store, &seedCfg)
		},
	}
}
