package repository

import (
	"context"

	"ocrapi/internal/model"
)

// InteractionRepository defines data access for interactions and their chat
// threads using SQL queries only. No business logic here, strictly
// persistence operations. All writes are append-only; there is no update or
// delete for either table.
type InteractionRepository interface {
	// Create inserts a new interaction row after a successful engine call.
	// The database assigns id and created_at; the stored row is returned.
	Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error)

	// FindByID returns an interaction by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Interaction, error)

	// List returns a page of interactions, most recent first, plus the total
	// row count for the given filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Interaction], error)

	// AppendChatTurn inserts a user message and its assistant reply as one
	// atomic unit. It fails with sql.ErrNoRows if the interaction does not
	// exist; on any failure neither message is persisted. Concurrent turns on
	// the same interaction are serialized so pairs never interleave.
	AppendChatTurn(ctx context.Context, interactionID int64, user, assistant *model.ChatMessage) (*model.ChatMessage, *model.ChatMessage, error)

	// ListChatMessages returns all messages for an interaction in
	// chronological (insertion) order.
	ListChatMessages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error)

	// AggregateUsage folds token and cost figures over both tables at call
	// time. An empty store yields zeroes, not an error.
	AggregateUsage(ctx context.Context) (*model.UsageStats, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
