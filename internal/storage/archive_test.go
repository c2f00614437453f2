package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubObjectStore struct {
	mock.Mock
}

func (s *stubObjectStore) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	args := s.Called(ctx, key, r, opt)
	return args.Get(0).(ObjectInfo), args.Error(1)
}

func (s *stubObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	args := s.Called(ctx, key)
	return nil, args.Get(1).(ObjectInfo), args.Error(2)
}

func (s *stubObjectStore) Delete(ctx context.Context, key string) error {
	return s.Called(ctx, key).Error(0)
}

func (s *stubObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := s.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

func TestArchivingStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("mirrors the saved artifact", func(t *testing.T) {
		disk, err := NewDiskStore(t.TempDir())
		require.NoError(t, err)

		obj := new(stubObjectStore)
		obj.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "artifacts/") && strings.HasSuffix(key, "_scan.png")
		}), mock.Anything, mock.Anything).Return(ObjectInfo{}, nil).Once()

		store := NewArchivingStore(disk, obj)
		art, err := store.Save(ctx, "scan.png", strings.NewReader("img"))

		require.NoError(t, err)
		assert.NotEmpty(t, art.Path)
		obj.AssertExpectations(t)
	})

	t.Run("mirror failure does not fail the upload", func(t *testing.T) {
		disk, err := NewDiskStore(t.TempDir())
		require.NoError(t, err)

		obj := new(stubObjectStore)
		obj.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(ObjectInfo{}, errors.New("bucket offline")).Once()

		store := NewArchivingStore(disk, obj)
		art, err := store.Save(ctx, "scan.png", strings.NewReader("img"))

		require.NoError(t, err)
		p, err := store.Path(art.Name)
		require.NoError(t, err)
		assert.Equal(t, art.Path, p)
		obj.AssertExpectations(t)
	})
}
