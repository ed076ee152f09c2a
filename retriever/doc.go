// Package retriever answers questions against the indexed corpus. It
// combines two retrieval legs: a vector leg doing embedding similarity
// search over chunks, and a graph leg that translates the question into
// a read-only Cypher query against the knowledge graph. Each leg
// degrades to zero results on failure so that one broken backend never
// takes down the whole retrieval.
package retriever
