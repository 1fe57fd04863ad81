package bagel

import "github.com/bageldb/bagel-go/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidArgument       = domain.ErrInvalidArgument
	ErrDuplicateID           = domain.ErrDuplicateID
	ErrNotFound              = domain.ErrNotFound
	ErrUnauthorized          = domain.ErrUnauthorized
	ErrServer                = domain.ErrServer
	ErrEmbeddingProvider     = domain.ErrEmbeddingProvider
	ErrEmbedderNotConfigured = domain.ErrEmbedderNotConfigured
)

// DuplicateIDError lists identifiers that occur more than once. Use errors.As.
type DuplicateIDError = domain.DuplicateIDError

// APIError is a non-2xx response from the service. Use errors.As.
type APIError = domain.APIError
