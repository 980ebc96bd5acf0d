package providers

import (
	"context"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

// CreatorCoinProvider defines the interface for the protocol-specific
// creator coin position data source.
type CreatorCoinProvider interface {
	// GetCreatorCoinPositions retrieves a user's creator coin positions in
	// native units. A user with no positions yields an empty sequence, not
	// an error.
	GetCreatorCoinPositions(ctx context.Context, auth, userID string) ([]entities.CreatorCoinPosition, error)
}
