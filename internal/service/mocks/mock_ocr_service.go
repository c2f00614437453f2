package mocks

import (
	"context"
	"io"

	"ocrapi/internal/model"
	"ocrapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockOCRService struct {
	mock.Mock
}

func (m *MockOCRService) ProcessUpload(ctx context.Context, r io.Reader, originalFilename, intent, modelID string) (*model.Interaction, error) {
	args := m.Called(ctx, r, originalFilename, intent, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interaction), args.Error(1)
}

func (m *MockOCRService) Chat(ctx context.Context, interactionID int64, message string) (string, error) {
	args := m.Called(ctx, interactionID, message)
	return args.String(0), args.Error(1)
}

func (m *MockOCRService) Results(ctx context.Context, limit, offset int) (*service.ResultList, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResultList), args.Error(1)
}

func (m *MockOCRService) Get(ctx context.Context, id int64) (*model.Interaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interaction), args.Error(1)
}

func (m *MockOCRService) Messages(ctx context.Context, interactionID int64) ([]model.ChatMessage, error) {
	args := m.Called(ctx, interactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChatMessage), args.Error(1)
}

func (m *MockOCRService) Stats(ctx context.Context) (*model.UsageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageStats), args.Error(1)
}
