package core

import "context"

// Store defines the contract for reading and conditionally writing the
// catalog document. Implementations are stateless per call: nothing learned
// in FetchCatalog is remembered for CommitCatalog except through the token.
type Store interface {
	// FetchCatalog retrieves and parses the document with its current version.
	FetchCatalog(ctx context.Context) (Catalog, Version, error)

	// CommitCatalog writes c only if the stored version still equals expected.
	// changeNote is recorded as the human-readable description of the change.
	// The new version is not returned; the next fetch observes it.
	CommitCatalog(ctx context.Context, c Catalog, expected Version, changeNote string) error
}

// Initializer is implemented by stores that can bootstrap an empty catalog.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Watchable is implemented by stores that can observe their backing document.
type Watchable interface {
	// Watch emits an event whenever the document changes outside this process.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Authenticator checks the caller credential presented to the protocol.
type Authenticator interface {
	Authenticate(credential string) error
}

// SharedSecret authenticates callers against one pre-shared key.
// Comparison is exact and case-sensitive. An empty secret rejects everyone.
type SharedSecret string

// Authenticate implements Authenticator.
func (s SharedSecret) Authenticate(credential string) error {
	if s == "" || credential == "" || credential != string(s) {
		return ErrUnauthorized
	}
	return nil
}
