package types

import "errors"

// Error kinds recognized by the chat pipeline. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so policy decisions (degrade vs fatal) can be
// made with errors.Is at the orchestrator boundary.
var (
	// ErrPersistence marks conversation store read/write failures. Writes
	// are non-fatal to a running interaction; the initial history read is
	// fatal.
	ErrPersistence = errors.New("conversation persistence failure")

	// ErrRetrieval marks vector search or query embedding failures. Always
	// degradable: the pipeline proceeds with empty context.
	ErrRetrieval = errors.New("vector retrieval failure")

	// ErrSummarizationDiverged marks a summarization round that failed to
	// shrink its input. Fatal, never retried.
	ErrSummarizationDiverged = errors.New("summarization diverged")

	// ErrGeneration marks refinement or answer generation failures. Fatal.
	ErrGeneration = errors.New("generation failure")
)
