package domain

import "errors"

var (
	// ErrCollectionNotFound signals a missing vector index collection.
	// Fatal at query time: the index is never auto-created while serving.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists signals that a collection already holds data
	// and replacement was not requested.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrDuplicateID signals duplicate document ids within one upsert batch.
	ErrDuplicateID = errors.New("duplicate document id in batch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat backend failure.
	ErrLLMProviderError = errors.New("llm provider error")
)
