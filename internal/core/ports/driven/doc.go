// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Pipeline Interfaces
//
//   - ObjectStore: Lists, fetches and stores documents and chat logs
//   - TextExtractor: Converts document bytes to text
//   - Chunker: Splits text into overlapping retrieval units
//   - EmbeddingService: Maps text to fixed-dimensionality vectors
//   - VectorIndex: Stores vectors and answers top-k similarity queries
//   - LLMService: Generates the answer text from a grounding prompt
//
// # Supporting Interfaces
//
//   - ConfigStore: Application configuration
//   - PromptStore: User-editable prompt templates
//   - AIConfigValidator: Connectivity checks for AI providers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
