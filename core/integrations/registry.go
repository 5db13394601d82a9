package integrations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

// Connection is one active third-party link: which toolkit, and the credential
// reference the broker resolves at execution time.
type Connection struct {
	ToolkitSlug        string
	ConnectedAccountID string
}

// Registry is a read-only view over the integrations the user has connected.
// Connections are created and revoked elsewhere; this core never writes them.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) ListActive(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	var rows []models.UserIntegration
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.IntegrationStatusActive).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	conns := make([]Connection, 0, len(rows))
	for _, row := range rows {
		conns = append(conns, Connection{
			ToolkitSlug:        row.ToolkitSlug,
			ConnectedAccountID: row.ConnectedAccountID,
		})
	}
	return conns, nil
}

// ConnectionForToolkit returns the active connection for a toolkit, or false
// when the user has none.
func (r *Registry) ConnectionForToolkit(ctx context.Context, userID uuid.UUID, toolkitSlug string) (Connection, bool, error) {
	conns, err := r.ListActive(ctx, userID)
	if err != nil {
		return Connection{}, false, err
	}
	for _, c := range conns {
		if c.ToolkitSlug == toolkitSlug {
			return c, true, nil
		}
	}
	return Connection{}, false, nil
}
