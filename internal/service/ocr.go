package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"ocrapi/internal/engine"
	"ocrapi/internal/model"
	"ocrapi/internal/pricing"
	"ocrapi/internal/repository"
	"ocrapi/internal/storage"
)

var (
	ErrReaderNil       = errors.New("reader is nil")
	ErrMessageRequired = errors.New("message is required")
	ErrNotFound        = errors.New("interaction not found")
)

// DefaultIntent is used when an upload omits the intent field.
const DefaultIntent = "OCR this image."

// ResultList is the service-level DTO for paginated interactions.
type ResultList struct {
	Results []model.Interaction `json:"results"`
	Total   int                 `json:"total"`
}

// OCRService defines the use cases of the system: process an upload through
// the engine, hold a follow-up conversation about it, and report usage.
type OCRService interface {
	// ProcessUpload stores the artifact, invokes the engine with the intent,
	// and persists the completed interaction. Any failure aborts the flow
	// without creating an interaction row.
	ProcessUpload(ctx context.Context, r io.Reader, originalFilename, intent, modelID string) (*model.Interaction, error)

	// Chat sends a follow-up message about an existing interaction and
	// returns the assistant's reply. The user/assistant pair is persisted
	// atomically; on any failure neither message is recorded.
	Chat(ctx context.Context, interactionID int64, message string) (string, error)

	// Results returns interactions most recent first.
	Results(ctx context.Context, limit, offset int) (*ResultList, error)

	// Get returns a single interaction by ID.
	Get(ctx context.Context, id int64) (*model.Interaction, error)

	// Messages returns the chat thread of an existing interaction in
	// chronological order. An unknown interaction is ErrNotFound; an existing
	// one with no messages is an empty list.
	Messages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error)

	// Stats folds usage over all interactions and chat messages.
	Stats(ctx context.Context) (*model.UsageStats, error)
}

// ocrService is a concrete implementation of OCRService.
type ocrService struct {
	store        storage.ArtifactStore
	gateway      engine.Gateway
	repo         repository.InteractionRepository
	defaultModel string
}

// NewOCRService constructs a new OCRService. defaultModel is used when an
// upload does not name a model.
func NewOCRService(store storage.ArtifactStore, gateway engine.Gateway, repo repository.InteractionRepository, defaultModel string) OCRService {
	return &ocrService{store: store, gateway: gateway, repo: repo, defaultModel: defaultModel}
}

func (s *ocrService) ProcessUpload(ctx context.Context, r io.Reader, originalFilename, intent, modelID string) (*model.Interaction, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if strings.TrimSpace(intent) == "" {
		intent = DefaultIntent
	}
	if modelID == "" {
		modelID = s.defaultModel
	}

	art, err := s.store.Save(ctx, originalFilename, r)
	if err != nil {
		if errors.Is(err, storage.ErrEmptyName) {
			return nil, err
		}
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	// The engine call is the long pole (up to the gateway timeout); nothing
	// is held across it, so unrelated requests proceed freely.
	output, err := s.gateway.Invoke(ctx, modelID, art.Path, intent)
	if err != nil {
		return nil, err
	}

	inputTokens := pricing.EstimateTokens(intent)
	outputTokens := pricing.EstimateTokens(output)
	in := &model.Interaction{
		Filename:      art.Name,
		Intent:        intent,
		Model:         modelID,
		Output:        output,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		EstimatedCost: pricing.EstimateCost(inputTokens, outputTokens, modelID),
	}
	stored, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}
	return stored, nil
}

func (s *ocrService) Chat(ctx context.Context, interactionID int64, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrMessageRequired
	}

	in, err := s.repo.FindByID(ctx, interactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	path, err := s.store.Path(in.Filename)
	if err != nil {
		return "", fmt.Errorf("resolve artifact: %w", err)
	}

	// Prior turns are not replayed into the prompt; conversation memory is
	// the engine's concern. The interaction's original model is reused.
	reply, err := s.gateway.Invoke(ctx, in.Model, path, message)
	if err != nil {
		return "", err
	}

	userTokens := pricing.EstimateTokens(message)
	replyTokens := pricing.EstimateTokens(reply)
	userMsg := &model.ChatMessage{
		Role:    model.RoleUser,
		Content: message,
		Tokens:  userTokens,
		Cost:    pricing.InputCost(userTokens, in.Model),
	}
	asstMsg := &model.ChatMessage{
		Role:    model.RoleAssistant,
		Content: reply,
		Tokens:  replyTokens,
		Cost:    pricing.OutputCost(replyTokens, in.Model),
	}

	if _, _, err := s.repo.AppendChatTurn(ctx, interactionID, userMsg, asstMsg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("record chat turn: %w", err)
	}
	return reply, nil
}

func (s *ocrService) Results(ctx context.Context, limit, offset int) (*ResultList, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ResultList{Results: res.Items, Total: res.Total}, nil
}

func (s *ocrService) Get(ctx context.Context, id int64) (*model.Interaction, error) {
	in, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return in, nil
}

func (s *ocrService) Messages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error) {
	if _, err := s.repo.FindByID(ctx, interactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.repo.ListChatMessages(ctx, interactionID)
}

func (s *ocrService) Stats(ctx context.Context) (*model.UsageStats, error) {
	return s.repo.AggregateUsage(ctx)
}
