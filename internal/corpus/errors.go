package corpus

import "fmt"

// ResourceError names a corpus resource that could not be fetched or parsed,
// where it was expected, and how to fix it.
type ResourceError struct {
	Resource string // "CSV" or "embeddings"
	Location string
	Hint     string
	Err      error
}

func (e *ResourceError) Error() string {
	msg := fmt.Sprintf("could not load %s from %s: %v", e.Resource, e.Location, e.Err)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

func (e *ResourceError) Unwrap() error { return e.Err }

func csvError(loc string, err error) *ResourceError {
	return &ResourceError{
		Resource: "CSV",
		Location: loc,
		Hint:     "make sure the movie dataset exists at this path",
		Err:      err,
	}
}

func embeddingsError(loc string, err error) *ResourceError {
	return &ResourceError{
		Resource: "embeddings",
		Location: loc,
		Hint:     "convert embeddings.npy to a JSON array of arrays first (or build it with 'movieqa embed')",
		Err:      err,
	}
}
