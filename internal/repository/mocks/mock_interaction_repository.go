package mocks

import (
	"context"

	"ocrapi/internal/model"
	"ocrapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) FindByID(ctx context.Context, id int64) (*model.Interaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Interaction], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Interaction]), args.Error(1)
}

func (m *MockInteractionRepository) AppendChatTurn(ctx context.Context, interactionID int64, user, assistant *model.ChatMessage) (*model.ChatMessage, *model.ChatMessage, error) {
	args := m.Called(ctx, interactionID, user, assistant)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.ChatMessage), args.Get(1).(*model.ChatMessage), args.Error(2)
}

func (m *MockInteractionRepository) ListChatMessages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error) {
	args := m.Called(ctx, interactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockInteractionRepository) AggregateUsage(ctx context.Context) (*model.UsageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageStats), args.Error(1)
}
