// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns passages and queries into vectors
//   - VectorStore: Stores vectors with payloads and runs similarity search
//   - Normaliser: Decodes one file format into text
//   - NormaliserRegistry: Selects the normaliser for a filename
//   - PostProcessorPipeline: Splits documents into chunks
//   - FileStore: Retains uploaded files for citation
//   - ConfigStore: Key/value settings file
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generative answers. Without it, answers are extractive.
//   - PromptStore: Custom prompt templates. Without it, built-in defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
