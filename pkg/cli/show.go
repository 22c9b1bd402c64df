package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func showCommand() *cli.Command {
	var (
		cfg      config
		chatID   string
		asJSON   bool
		showSrcs bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "chat-id",
			Aliases:     []string{"id"},
			Usage:       "Chat ID to show",
			Destination: &chatID,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Dump the conversation as JSON",
			Destination: &asJSON,
		},
		&cli.BoolFlag{
			Name:        "sources",
			Usage:       "Include citation sources in the transcript",
			Destination: &showSrcs,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show the transcript of a conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			chat, err := repo.GetChat(ctx, model.ChatID(chatID))
			if err != nil {
				return goerr.Wrap(err, "failed to get chat")
			}

			if asJSON {
				data, err := json.MarshalIndent(chat, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to marshal chat")
				}
				fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
				return nil
			}

			fmt.Fprintf(c.Root().Writer, "%s (%s)\n\n", chat.Title, chat.ID)
			for _, msg := range chat.Messages {
				fmt.Fprintf(c.Root().Writer, "[%s] %s\n", msg.Role, msg.Text)
				if showSrcs {
					for _, src := range msg.Sources {
						fmt.Fprintf(c.Root().Writer, "  - %s (%s)\n", src.Title, src.URI)
					}
				}
				fmt.Fprintln(c.Root().Writer)
			}
			return nil
		},
	}
}
