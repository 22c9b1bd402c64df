package ingest

import (
	"context"
	"fmt"

	"github.com/k-fujiwara/minerva/pkg/model"
	"github.com/k-fujiwara/minerva/pkg/service/embedding"
	"github.com/k-fujiwara/minerva/pkg/utils/logging"
	"github.com/k-fujiwara/minerva/pkg/vectorindex"
	"github.com/m-mizutani/goerr/v2"
)

// Input contains parameters for ingesting one document
type Input struct {
	Index    vectorindex.Index
	Embedder *embedding.Gateway

	Document *model.Document

	// RawText is the pre-extracted plain text of the document. When
	// empty, the text is decoded from the document's base64 payload.
	RawText string

	// OnProgress receives a human-readable stage description before
	// each pipeline step. Optional.
	OnProgress func(stage string)
}

func (x *Input) progress(stage string) {
	if x.OnProgress != nil {
		x.OnProgress(stage)
	}
}

// Ingest makes a document retrievable: decode, chunk, embed, and add to
// the project's vector collection. A document producing zero chunks is
// a successful no-op. Index writes already committed are not rolled
// back when a later step fails.
func Ingest(ctx context.Context, input Input) error {
	doc := input.Document

	text := input.RawText
	if text == "" {
		input.progress("Decoding document...")
		data, err := doc.DecodedContent()
		if err != nil {
			return err
		}
		text = string(data)
	}

	input.progress("Chunking document...")
	chunks := Chunk(text)
	if len(chunks) == 0 {
		logging.From(ctx).Warn("document produced no chunks", "document", doc.Name)
		return nil
	}

	input.progress(fmt.Sprintf("Embedding %d text chunks...", len(chunks)))
	embedded, err := input.Embedder.Embed(ctx, chunks)
	if err != nil {
		return goerr.Wrap(err, "failed to embed document chunks", goerr.V("document", doc.Name))
	}

	records := make([]vectorindex.Record, 0, len(embedded))
	for _, e := range embedded {
		records = append(records, vectorindex.Record{
			ID:     model.ChunkID(doc.ID, e.Index),
			Text:   e.Text,
			Vector: e.Vector,
			Metadata: model.ChunkMetadata{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
			},
		})
	}

	input.progress("Adding to knowledge base...")
	if err := input.Index.Add(ctx, doc.ProjectID, records); err != nil {
		return goerr.Wrap(err, "failed to add chunks to index", goerr.V("document", doc.Name))
	}

	return nil
}
