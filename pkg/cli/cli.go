package cli

import (
	"context"
	"os"

	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "minerva",
		Usage: "Document research assistant with retrieval-augmented chat",
		Commands: []*cli.Command{
			projectNewCommand(),
			projectListCommand(),
			projectDeleteCommand(),
			personaCommand(),
			ingestCommand(),
			docsCommand(),
			rmdocCommand(),
			chatCommand(),
			chatListCommand(),
			showCommand(),
			rmchatCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.From(ctx).Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// setup finishes configuration after flag parsing: the config file is
// merged in and a logger attached to the context
func (cfg *config) setup(ctx context.Context) (context.Context, error) {
	if err := cfg.load(); err != nil {
		return ctx, err
	}
	return logging.With(ctx, logging.New(cfg.logLevel, os.Stderr)), nil
}
