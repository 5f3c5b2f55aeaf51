package uid

import "github.com/google/uuid"

// New returns a time-ordered UUID (version 7), falling back to a random one.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// RunID identifies one pipeline run, e.g. "inventory-0190c3e1-...".
func RunID(pipeline string) string {
	return pipeline + "-" + New()
}
