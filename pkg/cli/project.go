package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/usecase/project"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func projectNewCommand() *cli.Command {
	var (
		cfg     config
		name    string
		persona string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Project name",
			Destination: &name,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "System prompt overriding the default research persona",
			Destination: &persona,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "new-project",
		Usage: "Create a new project",
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

			project := &model.Project{
				ID:           model.NewProjectID(),
				Name:         name,
				SystemPrompt: persona,
				CreatedAt:    time.Now(),
			}
			if err := repo.PutProject(ctx, project); err != nil {
				return goerr.Wrap(err, "failed to create project")
			}

			fmt.Fprintf(c.Root().Writer, "Created project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}
}

func projectListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "projects",
		Usage: "List all projects",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			projects, err := repo.ListProjects(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list projects")
			}

			for _, p := range projects {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func projectDeleteCommand() *cli.Command {
	var (
		cfg       config
		projectID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project ID to delete",
			Destination: &projectID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "rmproject",
		Usage: "Delete a project with its documents, chats and index entries",
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

			if err := project.Delete(ctx, repo, storage, index, model.ProjectID(projectID)); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Deleted project %s\n", projectID)
			return nil
		},
	}
}

func personaCommand() *cli.Command {
	var (
		cfg       config
		projectID string
		persona   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "project-id",
			Aliases:     []string{"id"},
			Usage:       "Project ID to update",
			Sources:     cli.EnvVars("MINERVA_PROJECT_ID"),
			Destination: &projectID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "persona",
			Usage:       "System prompt; empty restores the default research persona",
			Destination: &persona,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "persona",
		Usage: "Set or clear a project's system prompt",
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

			project, err := repo.GetProject(ctx, model.ProjectID(projectID))
			if err != nil {
				return goerr.Wrap(err, "failed to get project")
			}

			project.SystemPrompt = persona
			if err := repo.PutProject(ctx, project); err != nil {
				return goerr.Wrap(err, "failed to update project")
			}

			if persona == "" {
				fmt.Fprintf(c.Root().Writer, "Restored default persona for %s\n", project.Name)
			} else {
				fmt.Fprintf(c.Root().Writer, "Updated persona for %s\n", project.Name)
			}
			return nil
		},
	}
}
