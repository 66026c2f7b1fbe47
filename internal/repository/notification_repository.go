package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/creatorhub-backend/internal/model"
)

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *model.Notification) error
}

type NotificationRepository struct {
	DB *sql.DB
}

// Create inserts a notification row; delivery happens elsewhere.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO notifications (id, user_id, type, title, message, link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.CreatedAt)
	return err
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)
