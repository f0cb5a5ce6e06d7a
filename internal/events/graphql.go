package events

import "time"

// GraphQLStart is emitted before elaborating and executing a request.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after a request's response has been fully
// completed (all Staged nodes resolved).
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// CompletionStage is emitted once per interpreter bucket in each round of
// the completion engine (§4.E), after that bucket's batch of Staged nodes
// has been passed to its interpreter's RunRootValues; Duration covers that
// call only.
type CompletionStage struct {
	Interpreter string
	BatchSize   int
	Duration    time.Duration
}
