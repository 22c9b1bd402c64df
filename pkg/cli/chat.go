package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/usecase/chat"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		chatID    string
		attach    []string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project to chat in",
			Sources:     cli.EnvVars("MINERVA_PROJECT_ID"),
			Destination: &projectID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "chat-id",
			Usage:       "Continue an existing conversation",
			Destination: &chatID,
		},
		&cli.StringSliceFlag{
			Name:        "attach",
			Aliases:     []string{"a"},
			Usage:       "Document IDs to attach as retrieval context",
			Destination: &attach,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive research conversation",
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
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			index, err := cfg.newIndex(ctx)
			if err != nil {
				return err
			}

			out := c.Root().Writer
			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))

			// Streamed fragments extend the previous text; anything else
			// is a transient status and goes to the spinner.
			var printed string
			onUpdate := func(msg *model.Message) {
				if printed != "" && strings.HasPrefix(msg.Text, printed) {
					sp.Stop()
					fmt.Fprint(out, msg.Text[len(printed):])
					printed = msg.Text
					return
				}
				printed = ""
				sp.Suffix = " " + msg.Text
			}

			onSuggestions := func(questions []string) {
				fmt.Fprintf(out, "\nYou could ask next:\n")
				for _, q := range questions {
					fmt.Fprintf(out, "  - %s\n", q)
				}
			}

			session, err := chat.New(ctx, chat.NewInput{
				Repo:          repo,
				Gemini:        gemini,
				Storage:       storage,
				Index:         index,
				Embedder:      cfg.newEmbedder(gemini),
				ProjectID:     model.ProjectID(projectID),
				ChatID:        model.ChatID(chatID),
				OnUpdate:      onUpdate,
				OnSuggestions: onSuggestions,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create chat session")
			}

			for _, id := range attach {
				session.Chat().DocumentIDs = append(session.Chat().DocumentIDs, model.DocumentID(id))
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize terminal")
			}
			defer rl.Close()

			fmt.Fprintf(out, "Chat %s started. Prefix with 'find ' to search for documents, 'regen' to retry, 'exit' to quit.\n", session.Chat().ID)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "exit", line == "quit":
					session.Wait()
					fmt.Fprintf(out, "\nChat session completed\n")
					return nil
				}

				printed = ""
				sp.Suffix = " Thinking..."
				sp.Start()

				var msg *model.Message
				switch {
				case line == "regen":
					msg, err = session.Regenerate(ctx)
				case strings.HasPrefix(line, "find "):
					msg, err = session.Send(ctx, strings.TrimPrefix(line, "find "), model.ModeFindDocuments)
				default:
					msg, err = session.Send(ctx, line, model.ModeDeepResearch)
				}
				sp.Stop()

				if err != nil {
					fmt.Fprintf(out, "%s\n", err.Error())
					continue
				}

				// Whatever the stream did not print yet
				if rest := strings.TrimPrefix(msg.Text, printed); rest != "" {
					fmt.Fprint(out, rest)
				}
				fmt.Fprintln(out)

				if len(msg.Sources) > 0 {
					fmt.Fprintf(out, "\nSources:\n")
					for _, src := range msg.Sources {
						fmt.Fprintf(out, "  - %s (%s)\n", src.Title, src.URI)
					}
				}

				session.Wait()
			}

			session.Wait()
			fmt.Fprintf(out, "\nChat session completed\n")
			return nil
		},
	}
}
