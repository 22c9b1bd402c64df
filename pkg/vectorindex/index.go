package vectorindex

import (
	"context"
	"regexp"

	"github.com/k-fujiwara/minerva/pkg/model"
)

// Record is one retrievable chunk with its embedding vector
type Record struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata model.ChunkMetadata
}

// Result is a chunk returned by a nearest-neighbor query
type Result struct {
	Text     string
	Metadata model.ChunkMetadata
}

// Index stores chunk vectors in one collection per project and supports
// nearest-neighbor queries with an optional document allow-list.
// Collections are additive-only except for whole-document and
// whole-project deletion.
type Index interface {
	// Add appends chunk records to the project's collection
	Add(ctx context.Context, projectID model.ProjectID, records []Record) error

	// Query returns the top-k nearest chunks by embedding similarity.
	// A non-empty documentIDs restricts results to those documents.
	Query(ctx context.Context, projectID model.ProjectID, vector []float32, limit int, documentIDs []model.DocumentID) ([]Result, error)

	// DeleteDocument removes all chunks of one document from the
	// project's collection
	DeleteDocument(ctx context.Context, projectID model.ProjectID, documentID model.DocumentID) error

	// DeleteCollection removes all chunks of a project
	DeleteCollection(ctx context.Context, projectID model.ProjectID) error
}

var collectionNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CollectionName builds the index collection identifier for a project,
// sanitized to the backend's naming rules.
func CollectionName(projectID model.ProjectID) string {
	return "proj-" + collectionNamePattern.ReplaceAllString(string(projectID), "")
}
