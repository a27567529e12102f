// Package services defines the error taxonomy shared by every pipeline
// component and the context helpers that thread item/stage identifiers
// through logging.
//
// Errors are classified by wrapping one of the sentinel errors (ErrNetwork,
// ErrProvider, ...) via Wrap so the orchestration layer can decide on
// recovery with errors.Is instead of string matching. ProviderError
// additionally preserves the remote service's error code.
package services
