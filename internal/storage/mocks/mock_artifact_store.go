package mocks

import (
	"context"
	"io"

	"ocrapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Save(ctx context.Context, originalName string, r io.Reader) (storage.Artifact, error) {
	args := m.Called(ctx, originalName, r)
	return args.Get(0).(storage.Artifact), args.Error(1)
}

func (m *MockArtifactStore) Path(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}
