package lineage

import "errors"

var (
	// ErrNodeNotFound is returned when an operation references a node id
	// that was never issued by the graph, or a *Node value that does not
	// belong to it.
	ErrNodeNotFound = errors.New("lineage: node not found")

	// ErrInvalidConfiguration is returned when the configured accessor
	// cannot read one of the unique-key fields from a payload. It usually
	// means the unique keys and the payload shape disagree.
	ErrInvalidConfiguration = errors.New("lineage: invalid unique-key configuration")
)
