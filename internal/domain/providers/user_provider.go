package providers

import (
	"context"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

// UserProvider defines the interface for the batched token-gated user
// lookup.
type UserProvider interface {
	// GetUsersWithTokenGate resolves a batch of user identifiers in one
	// upstream call. Partial results are expected: each entry carries
	// either a resolved user or a structured denial.
	GetUsersWithTokenGate(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error)
}
