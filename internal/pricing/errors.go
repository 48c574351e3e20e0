package pricing

import "errors"

// ErrWorkflowNotFound is returned when a workflow slug is unknown or inactive.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrInvalidPayer is returned when a payer id does not exist.
var ErrInvalidPayer = errors.New("invalid payer id")
