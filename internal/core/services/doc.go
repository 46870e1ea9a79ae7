// Package services implements the driving port interfaces.
// Services hold the retrieval and answering logic and reach storage,
// embeddings and LLMs only through driven ports.
package services
