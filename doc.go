// Package graphrag provides a per-user retrieval-augmented-generation
// pipeline that combines a vector index with a knowledge graph.
//
// Documents are uploaded into a blob store under keys of the form
// documents/{ownerID}/{uniqueID}_{filename}, indexed by the ingestion
// pipeline (text extraction, chunking, embedding, triple extraction) and
// queried through a hybrid retriever that merges vector similarity hits
// with graph facts before answer generation.
//
// This package holds the shared data model and the store/embedder
// interfaces. Concrete implementations live in the subpackages:
//
//   - extract:    text extraction and cleaning (PDF, markdown, HTML, plain)
//   - splitter:   boundary-aware overlap chunking
//   - embedding:  OpenAI-compatible embedding client with optional Redis cache
//   - store:      vector stores (memory, pgvector), graph stores (memory,
//     FalkorDB), blob store and the sqlite document registry
//   - extraction: LLM triple-extraction strategies
//   - retriever:  hybrid vector + graph retrieval
//   - ingest:     per-document ingestion orchestration
//   - query:      question answering with citations
//   - server:     HTTP API
package graphrag
