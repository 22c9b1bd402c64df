package cli

import (
	"context"
	"fmt"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/usecase/ingest"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func docsCommand() *cli.Command {
	var (
		cfg       config
		projectID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project whose documents to list",
			Sources:     cli.EnvVars("MINERVA_PROJECT_ID"),
			Destination: &projectID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "docs",
		Usage: "List documents in a project",
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

			docs, err := repo.ListDocuments(ctx, model.ProjectID(projectID))
			if err != nil {
				return goerr.Wrap(err, "failed to list documents")
			}

			if len(docs) == 0 {
				fmt.Fprintf(c.Root().Writer, "No documents found for project %s\n", projectID)
				return nil
			}

			for _, d := range docs {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					d.ID, d.Name, d.MIMEType, d.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func rmdocCommand() *cli.Command {
	var (
		cfg   config
		docID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "document-id",
			Aliases:     []string{"id"},
			Usage:       "Document ID to delete",
			Destination: &docID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "rmdoc",
		Usage: "Delete a document, its payload and its index entries",
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
			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}
			index, err := cfg.newIndex(ctx)
			if err != nil {
				return err
			}

			doc, err := repo.GetDocument(ctx, model.DocumentID(docID))
			if err != nil {
				return goerr.Wrap(err, "failed to get document")
			}

			if err := ingest.DeleteDocument(ctx, repo, storage, index, doc); err != nil {
				return goerr.Wrap(err, "failed to delete document")
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s (%s)\n", doc.Name, doc.ID)
			return nil
		},
	}
}
