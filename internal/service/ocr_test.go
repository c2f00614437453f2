package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"ocrapi/internal/engine"
	engineMocks "ocrapi/internal/engine/mocks"
	"ocrapi/internal/model"
	"ocrapi/internal/pricing"
	"ocrapi/internal/repository"
	repoMocks "ocrapi/internal/repository/mocks"
	"ocrapi/internal/storage"
	storeMocks "ocrapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOCRService_ProcessUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path records estimator figures verbatim", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		r := strings.NewReader("image-bytes")
		art := storage.Artifact{Name: "100_scan.png", Path: "uploads/100_scan.png", Size: 11}
		mStore.On("Save", ctx, "scan.png", r).Return(art, nil)
		mGw.On("Invoke", ctx, "deepseek-ocr", art.Path, "OCR this image.").
			Return("Recognized: hello", nil)

		wantIn := pricing.EstimateTokens("OCR this image.")
		wantOut := pricing.EstimateTokens("Recognized: hello")
		wantCost := pricing.EstimateCost(wantIn, wantOut, "deepseek-ocr")

		mRepo.On("Create", ctx, mock.MatchedBy(func(in *model.Interaction) bool {
			return in.Filename == art.Name &&
				in.Intent == "OCR this image." &&
				in.Model == "deepseek-ocr" &&
				in.Output == "Recognized: hello" &&
				in.InputTokens == wantIn &&
				in.OutputTokens == wantOut &&
				in.EstimatedCost == wantCost
		})).Return(&model.Interaction{ID: 1, Filename: art.Name}, nil)

		stored, err := svc.ProcessUpload(ctx, r, "scan.png", "OCR this image.", "deepseek-ocr")

		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ID)
		mStore.AssertExpectations(t)
		mGw.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("blank intent falls back to the default", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		r := strings.NewReader("x")
		mStore.On("Save", ctx, "a.png", r).Return(storage.Artifact{Name: "1_a.png", Path: "uploads/1_a.png"}, nil)
		mGw.On("Invoke", ctx, "deepseek-ocr", "uploads/1_a.png", DefaultIntent).Return("text", nil)
		mRepo.On("Create", ctx, mock.Anything).Return(&model.Interaction{ID: 2}, nil)

		_, err := svc.ProcessUpload(ctx, r, "a.png", "   ", "")

		assert.NoError(t, err)
		mGw.AssertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		svc := NewOCRService(nil, nil, nil, "deepseek-ocr")
		_, err := svc.ProcessUpload(ctx, nil, "a.png", "", "")
		assert.ErrorIs(t, err, ErrReaderNil)
	})

	t.Run("empty filename surfaces as validation error", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		svc := NewOCRService(mStore, nil, nil, "deepseek-ocr")

		r := strings.NewReader("x")
		mStore.On("Save", ctx, "", r).Return(storage.Artifact{}, storage.ErrEmptyName)

		_, err := svc.ProcessUpload(ctx, r, "", "", "")
		assert.ErrorIs(t, err, storage.ErrEmptyName)
	})

	t.Run("engine failure creates no interaction", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		r := strings.NewReader("x")
		mStore.On("Save", ctx, "a.png", r).Return(storage.Artifact{Name: "1_a.png", Path: "uploads/1_a.png"}, nil)
		engErr := &engine.EngineError{ExitCode: 1, Stderr: "boom"}
		mGw.On("Invoke", ctx, "deepseek-ocr", "uploads/1_a.png", DefaultIntent).Return("", engErr)

		_, err := svc.ProcessUpload(ctx, r, "a.png", "", "deepseek-ocr")

		var got *engine.EngineError
		require.ErrorAs(t, err, &got)
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("storage write failure aborts before invoking", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		r := strings.NewReader("x")
		mStore.On("Save", ctx, "a.png", r).Return(storage.Artifact{}, errors.New("disk full"))

		_, err := svc.ProcessUpload(ctx, r, "a.png", "", "")

		assert.ErrorContains(t, err, "store artifact")
		mGw.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOCRService_Chat(t *testing.T) {
	ctx := context.Background()

	interaction := &model.Interaction{
		ID:       5,
		Filename: "5_doc.png",
		Model:    "deepseek-ocr",
	}

	t.Run("happy path persists the pair with per-side costs", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(5)).Return(interaction, nil)
		mStore.On("Path", "5_doc.png").Return("uploads/5_doc.png", nil)
		mGw.On("Invoke", ctx, "deepseek-ocr", "uploads/5_doc.png", "what is the total?").
			Return("$42.00", nil)

		userTokens := pricing.EstimateTokens("what is the total?")
		replyTokens := pricing.EstimateTokens("$42.00")
		mRepo.On("AppendChatTurn", ctx, int64(5),
			mock.MatchedBy(func(m *model.ChatMessage) bool {
				return m.Role == model.RoleUser &&
					m.Content == "what is the total?" &&
					m.Tokens == userTokens &&
					m.Cost == pricing.InputCost(userTokens, "deepseek-ocr")
			}),
			mock.MatchedBy(func(m *model.ChatMessage) bool {
				return m.Role == model.RoleAssistant &&
					m.Content == "$42.00" &&
					m.Tokens == replyTokens &&
					m.Cost == pricing.OutputCost(replyTokens, "deepseek-ocr")
			}),
		).Return(&model.ChatMessage{ID: 1}, &model.ChatMessage{ID: 2}, nil)

		reply, err := svc.Chat(ctx, 5, "what is the total?")

		require.NoError(t, err)
		assert.Equal(t, "$42.00", reply)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty message", func(t *testing.T) {
		svc := NewOCRService(nil, nil, nil, "deepseek-ocr")
		_, err := svc.Chat(ctx, 5, "   ")
		assert.ErrorIs(t, err, ErrMessageRequired)
	})

	t.Run("unknown interaction", func(t *testing.T) {
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(404)).Return(nil, sql.ErrNoRows)

		_, err := svc.Chat(ctx, 404, "hello")
		assert.ErrorIs(t, err, ErrNotFound)
		mRepo.AssertNotCalled(t, "AppendChatTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("engine failure persists neither message", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mGw := new(engineMocks.MockGateway)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, mGw, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(5)).Return(interaction, nil)
		mStore.On("Path", "5_doc.png").Return("uploads/5_doc.png", nil)
		mGw.On("Invoke", ctx, "deepseek-ocr", "uploads/5_doc.png", "hello").
			Return("", engine.ErrTimeout)

		_, err := svc.Chat(ctx, 5, "hello")

		assert.ErrorIs(t, err, engine.ErrTimeout)
		mRepo.AssertNotCalled(t, "AppendChatTurn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing artifact is a storage failure", func(t *testing.T) {
		mStore := new(storeMocks.MockArtifactStore)
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(mStore, nil, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(5)).Return(interaction, nil)
		mStore.On("Path", "5_doc.png").Return("", storage.ErrArtifactNotFound)

		_, err := svc.Chat(ctx, 5, "hello")
		assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
	})
}

func TestOCRService_Results(t *testing.T) {
	ctx := context.Background()

	t.Run("passes pagination through with defaults", func(t *testing.T) {
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

		mRepo.On("List", ctx, repository.PageQuery{Limit: 50, Offset: 0}).
			Return(&repository.PageResult[model.Interaction]{
				Items: []model.Interaction{{ID: 2}, {ID: 1}},
				Total: 2,
			}, nil)

		res, err := svc.Results(ctx, 0, -3)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, int64(2), res.Results[0].ID)
	})
}

func TestOCRService_Get(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockInteractionRepository)
	svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

	mRepo.On("FindByID", ctx, int64(1)).Return(&model.Interaction{ID: 1}, nil)
	mRepo.On("FindByID", ctx, int64(9)).Return(nil, sql.ErrNoRows)

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)

	_, err = svc.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOCRService_Messages(t *testing.T) {
	ctx := context.Background()

	t.Run("existing interaction with empty thread", func(t *testing.T) {
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(3)).Return(&model.Interaction{ID: 3}, nil)
		mRepo.On("ListChatMessages", ctx, int64(3)).Return([]model.ChatMessage{}, nil)

		msgs, err := svc.Messages(ctx, 3)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("unknown interaction", func(t *testing.T) {
		mRepo := new(repoMocks.MockInteractionRepository)
		svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

		mRepo.On("FindByID", ctx, int64(404)).Return(nil, sql.ErrNoRows)

		_, err := svc.Messages(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
		mRepo.AssertNotCalled(t, "ListChatMessages", mock.Anything, mock.Anything)
	})
}

func TestOCRService_Stats(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockInteractionRepository)
	svc := NewOCRService(nil, nil, mRepo, "deepseek-ocr")

	mRepo.On("AggregateUsage", ctx).Return(&model.UsageStats{TotalInteractions: 4, TotalTokens: 99, TotalCost: 0.0001}, nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalInteractions)
}
