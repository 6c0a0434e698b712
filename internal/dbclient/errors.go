package dbclient

import "fmt"

// URIError reports a connection URI an adapter could not parse.
// Its message is shown to the user as-is.
type URIError struct {
	Backend string
}

func (e *URIError) Error() string {
	return fmt.Sprintf("Invalid %s URI format", e.Backend)
}

func invalidURI(backend string) error {
	return &URIError{Backend: backend}
}
