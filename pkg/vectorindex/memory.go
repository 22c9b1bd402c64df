package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/k-fujiwara/minerva/pkg/model"
)

// memoryIndex is an in-memory Index for tests and local use
type memoryIndex struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemory creates a new in-memory vector index
func NewMemory() Index {
	return &memoryIndex{
		collections: make(map[string][]Record),
	}
}

func (x *memoryIndex) Add(ctx context.Context, projectID model.ProjectID, records []Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	name := CollectionName(projectID)
	x.collections[name] = append(x.collections[name], records...)
	return nil
}

func (x *memoryIndex) Query(ctx context.Context, projectID model.ProjectID, vector []float32, limit int, documentIDs []model.DocumentID) ([]Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	allowed := make(map[model.DocumentID]bool, len(documentIDs))
	for _, id := range documentIDs {
		allowed[id] = true
	}

	type scored struct {
		rec   Record
		score float64
	}
	var candidates []scored
	for _, rec := range x.collections[CollectionName(projectID)] {
		if len(allowed) > 0 && !allowed[rec.Metadata.DocumentID] {
			continue
		}
		candidates = append(candidates, scored{rec: rec, score: cosineSimilarity(vector, rec.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{Text: c.rec.Text, Metadata: c.rec.Metadata})
	}
	return results, nil
}

func (x *memoryIndex) DeleteDocument(ctx context.Context, projectID model.ProjectID, documentID model.DocumentID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	name := CollectionName(projectID)
	var kept []Record
	for _, rec := range x.collections[name] {
		if rec.Metadata.DocumentID != documentID {
			kept = append(kept, rec)
		}
	}
	x.collections[name] = kept
	return nil
}

func (x *memoryIndex) DeleteCollection(ctx context.Context, projectID model.ProjectID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, CollectionName(projectID))
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
