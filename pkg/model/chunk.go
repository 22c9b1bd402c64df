package model

import "fmt"

// ChunkID is "<documentID>-chunk-<index>", namespaced so that documents
// in the same project can be ingested concurrently without collisions.
func ChunkID(docID DocumentID, index int) string {
	return fmt.Sprintf("%s-chunk-%d", docID, index)
}

// ChunkMetadata travels with each indexed chunk and backs citation and
// document-filtered retrieval.
type ChunkMetadata struct {
	DocumentID   DocumentID `json:"document_id" firestore:"documentId"`
	DocumentName string     `json:"document_name" firestore:"documentName"`
}
