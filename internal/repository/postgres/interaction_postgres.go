package postgres

import (
	"context"
	"database/sql"

	"ocrapi/internal/model"
	"ocrapi/internal/repository"
)

// InteractionPostgres is a PostgreSQL implementation of
// repository.InteractionRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type InteractionPostgres struct {
	db *sql.DB
}

// NewInteractionPostgres creates a new InteractionPostgres repository.
func NewInteractionPostgres(db *sql.DB) *InteractionPostgres {
	return &InteractionPostgres{db: db}
}

var _ repository.InteractionRepository = (*InteractionPostgres)(nil)

// Create inserts a new interaction row and returns the stored record with the
// database-assigned id and created_at.
func (r *InteractionPostgres) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	const q = `
		INSERT INTO interactions (filename, intent, model, output, input_tokens, output_tokens, estimated_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, filename, intent, model, output, input_tokens, output_tokens, estimated_cost, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		in.Filename,
		in.Intent,
		in.Model,
		in.Output,
		in.InputTokens,
		in.OutputTokens,
		in.EstimatedCost,
	)
	var out model.Interaction
	if err := scanInteraction(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single interaction by its ID.
func (r *InteractionPostgres) FindByID(ctx context.Context, id int64) (*model.Interaction, error) {
	const q = `
		SELECT id, filename, intent, model, output, input_tokens, output_tokens, estimated_cost, created_at
		FROM interactions
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var in model.Interaction
	if err := scanInteraction(row, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// List returns interactions most recent first using LIMIT/OFFSET pagination
// and a total count.
func (r *InteractionPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Interaction], error) {
	const qCount = `SELECT COUNT(*) FROM interactions`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, filename, intent, model, output, input_tokens, output_tokens, estimated_cost, created_at
		FROM interactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Interaction, 0)
	for rows.Next() {
		var in model.Interaction
		if err := rows.Scan(
			&in.ID,
			&in.Filename,
			&in.Intent,
			&in.Model,
			&in.Output,
			&in.InputTokens,
			&in.OutputTokens,
			&in.EstimatedCost,
			&in.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Interaction]{
		Items: items,
		Total: total,
	}, nil
}

// AppendChatTurn inserts the user and assistant messages of one chat turn
// inside a single transaction. The parent interaction row is locked first:
// FOR UPDATE both proves the interaction exists (sql.ErrNoRows otherwise) and
// serializes concurrent turns on the same interaction, so list reads never
// observe an interleaved or half-written pair.
func (r *InteractionPostgres) AppendChatTurn(ctx context.Context, interactionID int64, user, assistant *model.ChatMessage) (*model.ChatMessage, *model.ChatMessage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var locked int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM interactions WHERE id = $1 FOR UPDATE`, interactionID).Scan(&locked); err != nil {
		return nil, nil, err
	}

	const qInsert = `
		INSERT INTO chat_messages (interaction_id, role, content, tokens, cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, interaction_id, role, content, tokens, cost, created_at
	`

	var userOut model.ChatMessage
	if err := scanChatMessage(tx.QueryRowContext(ctx, qInsert,
		interactionID, model.RoleUser, user.Content, user.Tokens, user.Cost,
	), &userOut); err != nil {
		return nil, nil, err
	}

	var asstOut model.ChatMessage
	if err := scanChatMessage(tx.QueryRowContext(ctx, qInsert,
		interactionID, model.RoleAssistant, assistant.Content, assistant.Tokens, assistant.Cost,
	), &asstOut); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &userOut, &asstOut, nil
}

// ListChatMessages returns the full thread for an interaction in insertion
// order.
func (r *InteractionPostgres) ListChatMessages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error) {
	const q = `
		SELECT id, interaction_id, role, content, tokens, cost, created_at
		FROM chat_messages
		WHERE interaction_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, interactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]model.ChatMessage, 0)
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(
			&m.ID,
			&m.InteractionID,
			&m.Role,
			&m.Content,
			&m.Tokens,
			&m.Cost,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AggregateUsage sums tokens and costs across interactions and chat messages
// in one statement. COALESCE keeps an empty store at zero for every field.
func (r *InteractionPostgres) AggregateUsage(ctx context.Context) (*model.UsageStats, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM interactions),
			(SELECT COALESCE(SUM(input_tokens + output_tokens), 0) FROM interactions)
				+ (SELECT COALESCE(SUM(tokens), 0) FROM chat_messages),
			(SELECT COALESCE(SUM(estimated_cost), 0) FROM interactions)
				+ (SELECT COALESCE(SUM(cost), 0) FROM chat_messages)
	`
	var stats model.UsageStats
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&stats.TotalInteractions,
		&stats.TotalTokens,
		&stats.TotalCost,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner, in *model.Interaction) error {
	return row.Scan(
		&in.ID,
		&in.Filename,
		&in.Intent,
		&in.Model,
		&in.Output,
		&in.InputTokens,
		&in.OutputTokens,
		&in.EstimatedCost,
		&in.CreatedAt,
	)
}

func scanChatMessage(row rowScanner, m *model.ChatMessage) error {
	return row.Scan(
		&m.ID,
		&m.InteractionID,
		&m.Role,
		&m.Content,
		&m.Tokens,
		&m.Cost,
		&m.CreatedAt,
	)
}
