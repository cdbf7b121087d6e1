package pipeline

import "github.com/starford/audita/internal/models"

// Pipeline holds the three queues connecting the stages: submitted
// documents flow to the worker, which fans emitted batches out to the
// signer and storage queues in parallel.
type Pipeline struct {
	Documents *Queue[models.Document]
	Signer    *Queue[*models.Batch]
	Storage   *Queue[*models.Batch]
}

// New creates the pipeline with every queue bounded at capacity.
func New(capacity int) *Pipeline {
	return &Pipeline{
		Documents: NewQueue[models.Document](capacity),
		Signer:    NewQueue[*models.Batch](capacity),
		Storage:   NewQueue[*models.Batch](capacity),
	}
}
