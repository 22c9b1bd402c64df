package cli

import (
	"context"
	"fmt"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatListCommand() *cli.Command {
	var (
		cfg       config
		projectID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project whose chats to list",
			Sources:     cli.EnvVars("MINERVA_PROJECT_ID"),
			Destination: &projectID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "chats",
		Usage: "List conversations in a project",
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

			chats, err := repo.ListChats(ctx, model.ProjectID(projectID))
			if err != nil {
				return goerr.Wrap(err, "failed to list chats")
			}

			if len(chats) == 0 {
				fmt.Fprintf(c.Root().Writer, "No chats found for project %s\n", projectID)
				return nil
			}

			for _, ch := range chats {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%d messages\t%s\n",
					ch.ID, ch.Title, len(ch.Messages), ch.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func rmchatCommand() *cli.Command {
	var (
		cfg    config
		chatID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "chat-id",
			Aliases:     []string{"id"},
			Usage:       "Chat ID to delete",
			Destination: &chatID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "rmchat",
		Usage: "Delete a conversation",
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

			// Fail on a missing chat instead of silently deleting nothing
			if _, err := repo.GetChat(ctx, model.ChatID(chatID)); err != nil {
				return goerr.Wrap(err, "failed to get chat")
			}
			if err := repo.DeleteChat(ctx, model.ChatID(chatID)); err != nil {
				return goerr.Wrap(err, "failed to delete chat")
			}

			fmt.Fprintf(c.Root().Writer, "Deleted chat %s\n", chatID)
			return nil
		},
	}
}
