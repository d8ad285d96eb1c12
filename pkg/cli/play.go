package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/kagemusha-ai/kagemusha/pkg/model"
	"github.com/kagemusha-ai/kagemusha/pkg/room"
	"github.com/kagemusha-ai/kagemusha/pkg/scenario"
	"github.com/kagemusha-ai/kagemusha/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func playCommand() *cli.Command {
	var (
		cfg          config
		scenarioPath string
		roomID       string
		player       string
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
			Usage:       "Room ID (generated when omitted)",
			Destination: &roomID,
		},
		&cli.StringFlag{
			Name:        "player",
			Usage:       "Name the player speaks as",
			Value:       "侦探",
			Destination: &player,
		},
	}
	flags = append(flags, storeFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, loggingFlags(&cfg)...)

	return &cli.Command{
		Name:  "play",
		Usage: "Run an interactive game session against the scenario's characters",
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

			registry := room.NewRegistry()
			rm, err := room.New(ctx, room.NewInput{
				ID:       model.RoomID(roomID),
				Scenario: sc,
				Embedder: gemini,
				Index:    index,
				LLM:      gemini,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create room")
			}
			if err := registry.Register(rm); err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "%s (room %s)\n", rm.Title(), rm.ID())
			fmt.Fprintf(w, "Characters:\n")
			for _, char := range rm.Characters() {
				fmt.Fprintf(w, "  @%s\n", char)
			}
			fmt.Fprintf(w, "Ask with '@<character> <question>'. Type 'exit' to quit.\n\n")

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize input")
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" {
					break
				}

				target, question, ok := parseAsk(line)
				if !ok {
					fmt.Fprintf(w, "Ask with '@<character> <question>'.\n")
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = fmt.Sprintf(" %s 思考中...", target)
				sp.Start()
				msg, err := rm.Ask(ctx, model.CharacterID(player), target, question)
				sp.Stop()

				if err != nil {
					if errors.Is(err, model.ErrCharacterNotFound) {
						fmt.Fprintf(w, "No such character: %s\n", target)
						continue
					}
					return err
				}

				if msg == nil {
					fmt.Fprintf(w, "%s: （沉默）\n", target)
					continue
				}
				fmt.Fprintf(w, "%s: %s\n", msg.Sender, msg.Content)
			}

			if cfg.bucket != "" {
				storage, err := cfg.newStorage(ctx)
				if err != nil {
					return err
				}
				key := fmt.Sprintf("rooms/%s/transcript.json", rm.ID())
				if err := rm.Transcript().Archive(ctx, storage, key); err != nil {
					return goerr.Wrap(err, "failed to archive transcript")
				}
				logging.From(ctx).Info("transcript archived", "key", key)
			}

			fmt.Fprintf(w, "\nSession ended (%d messages)\n", rm.Transcript().Len())
			return nil
		},
	}
}

// parseAsk splits an "@character question" line.
func parseAsk(line string) (model.CharacterID, string, bool) {
	if !strings.HasPrefix(line, "@") {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(line, "@"), " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	target := strings.TrimSpace(parts[0])
	question := strings.TrimSpace(parts[1])
	if target == "" || question == "" {
		return "", "", false
	}
	return model.CharacterID(target), question, true
}
