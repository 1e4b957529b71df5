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
//   - VectorStore: Chunk persistence with upsert, cursor scan and collection delete
//   - RegistryStore: Pack registry persistence
//   - EmbeddingService: Maps chunk text to vectors
//   - SourceFetcher: Reads source text for ingestion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorSearcher: Similarity queries. Without it, pack search is disabled.
//   - Summariser: LLM summaries. Without it, raw chunk text is embedded.
//   - IngestRunStore: Ingest history. Without it, runs are not recorded.
//   - SyncStateStore: Pull cursors. Without it, pulls cannot resume.
//   - SchedulerStore: Scheduled re-ingestion state.
//   - PackClient: Remote download API. Only needed for pulls.
//   - PromptStore: Custom summary prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or postprocessor package
package driven
