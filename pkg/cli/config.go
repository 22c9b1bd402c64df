package cli

import (
	"context"
	"os"

	"github.com/k-fujiwara/minerva/pkg/adapter"
	"github.com/k-fujiwara/minerva/pkg/repository"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	configFile string
	logLevel   string

	// Repository and storage
	project  string
	database string
	bucket   string

	// Gemini
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
}

// fileConfig is the YAML config file layout. Values from the file only
// fill fields that flags and environment variables left empty.
type fileConfig struct {
	Project  string `yaml:"project"`
	Database string `yaml:"database"`
	Bucket   string `yaml:"bucket"`

	Gemini struct {
		Project         string `yaml:"project"`
		Location        string `yaml:"location"`
		GenerativeModel string `yaml:"generative_model"`
		EmbeddingModel  string `yaml:"embedding_model"`
	} `yaml:"gemini"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML configuration file",
			Sources:     cli.EnvVars("MINERVA_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("MINERVA_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for document payloads",
			Sources:     cli.EnvVars("MINERVA_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model for chat and research generation",
			Sources:     cli.EnvVars("MINERVA_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model for text embeddings",
			Sources:     cli.EnvVars("MINERVA_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// load reads the config file, if given, and fills fields left empty by
// flags and environment variables
func (cfg *config) load() error {
	if cfg.configFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configFile))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configFile))
	}

	fill(&cfg.project, fc.Project)
	fill(&cfg.database, fc.Database)
	fill(&cfg.bucket, fc.Bucket)
	fill(&cfg.geminiProject, fc.Gemini.Project)
	fill(&cfg.geminiLocation, fc.Gemini.Location)
	fill(&cfg.generativeModel, fc.Gemini.GenerativeModel)
	fill(&cfg.embeddingModel, fc.Gemini.EmbeddingModel)

	return nil
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		cfg.geminiProject = cfg.project
	}
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newIndex creates a new vector index instance
func (cfg *config) newIndex(ctx context.Context) (vectorindex.Index, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}

	index, err := vectorindex.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vector index")
	}
	return index, nil
}

// newEmbedder creates the embedding gateway on top of a Gemini adapter
func (cfg *config) newEmbedder(gemini adapter.Gemini) *embedding.Gateway {
	return embedding.NewGateway(gemini)
}
