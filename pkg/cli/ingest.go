package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		input     string
		name      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project to attach the document to",
			Sources:     cli.EnvVars("MINERVA_PROJECT_ID"),
			Destination: &projectID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to the document file",
			Destination: &input,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Display name; defaults to the file name",
			Destination: &name,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Upload a document and make it searchable",
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

			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", input))
			}

			if name == "" {
				name = filepath.Base(input)
			}
			mimeType := mime.TypeByExtension(filepath.Ext(input))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			doc := &model.Document{
				ID:        model.NewDocumentID(),
				Name:      name,
				MIMEType:  mimeType,
				ProjectID: model.ProjectID(projectID),
				CreatedAt: time.Now(),
				Content:   base64.StdEncoding.EncodeToString(data),
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = " Saving document..."
			sp.Start()
			defer sp.Stop()

			if err := ingest.SaveDocument(ctx, repo, storage, doc); err != nil {
				return err
			}

			err = ingest.Ingest(ctx, ingest.Input{
				Index:    index,
				Embedder: cfg.newEmbedder(gemini),
				Document: doc,
				OnProgress: func(stage string) {
					sp.Suffix = " " + stage
				},
			})
			if err != nil {
				return err
			}

			sp.Stop()
			fmt.Fprintf(c.Root().Writer, "Ingested %s as %s\n", name, doc.ID)
			return nil
		},
	}
}
