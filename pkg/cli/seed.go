package cli

import (
	"context"

	"github.com/kagemusha-ai/kagemusha/pkg/knowledge"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/scenario"
	"github.com/kagemusha-ai/kagemusha/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func seedCommand() *cli.Command {
	var (
		cfg          config
		scenarioPath string
		roomID       string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "scenario",
			Aliases:     []string{"s"},
			Usage:       "Path to the scenario YAML file",
			Sources:     cli.EnvVars("KAGEMUSHA_SCENARIO"),
			Destination: &scenarioPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "room-id",
			Usage:       "Room ID to seed the knowledge base under",
			Destination: &roomID,
			Required:    true,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, loggingFlags(&cfg)...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Provision and fill the knowledge base for a scenario",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggerContext(ctx)

			sc, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			index, err := cfg.newIndex(ctx)
			if err != nil {
				return err
			}

			store := knowledge.New(gemini, index, model.RoomID(roomID))
			if err := scenario.Seed(ctx, store, sc); err != nil {
				return err
			}

			logging.From(ctx).Info("knowledge base seeded",
				"room", roomID, "characters", len(sc.Characters))
			return nil
		},
	}
}
