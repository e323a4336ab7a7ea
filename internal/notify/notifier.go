package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ChannelDatabase is the default delivery channel recorded with a notification.
const ChannelDatabase = "database"

// Notification is a message for one user.
type Notification struct {
	RecipientUserID int64
	Title           string
	Message         string
	Data            map[string]any
	Channel         string
	Urgent          bool
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Execer is the subset of pgxpool.Pool the database notifier needs.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// DatabaseNotifier persists notifications to the notifications table for in-app listing.
type DatabaseNotifier struct {
	db    Execer
	newID func() uuid.UUID
}

// NewDatabaseNotifier creates a DatabaseNotifier writing through db.
func NewDatabaseNotifier(db Execer) *DatabaseNotifier {
	return &DatabaseNotifier{db: db, newID: uuid.New}
}

// Notify inserts one notification row.
func (n *DatabaseNotifier) Notify(ctx context.Context, msg Notification) error {
	if msg.RecipientUserID <= 0 {
		return fmt.Errorf("notify: invalid recipient %d", msg.RecipientUserID)
	}
	data := msg.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}
	channel := msg.Channel
	if channel == "" {
		channel = ChannelDatabase
	}

	_, err = n.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, data, channel, urgent) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.newID(), msg.RecipientUserID, msg.Title, msg.Message, payload, channel, msg.Urgent)
	if err != nil {
		return fmt.Errorf("insert notification for user %d: %w", msg.RecipientUserID, err)
	}
	return nil
}
