// Package store provides the storage backends of the pipeline: vector
// stores (in-memory, pgvector), graph stores (in-memory, FalkorDB), the
// filesystem blob store for staged uploads and the sqlite document
// registry that carries per-document status tags.
//
// The in-memory implementations are complete enough for single-process
// deployments and tests; the pgvector and FalkorDB implementations back
// the same interfaces with external services. Which one runs is a
// configuration decision, see the config package.
package store
