// Package vector talks to Pinecone: index management, hosted embeddings,
// upserts and similarity queries. Retriever assembles the company, solution
// and product background used when generating cold emails, and Indexer loads
// the knowledge base.
package vector
