package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Invoke(ctx context.Context, model, imagePath, intent string) (string, error) {
	args := m.Called(ctx, model, imagePath, intent)
	return args.String(0), args.Error(1)
}
