package cli

import (
	"context"

	"github.com/kagemusha-ai/kagemusha/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "kagemusha",
		Usage: "Deception agents for script-driven mystery games",
		Commands: []*cli.Command{
			playCommand(),
			seedCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
