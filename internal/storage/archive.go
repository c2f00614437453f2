package storage

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

// ArchivingStore wraps an ArtifactStore and mirrors every saved artifact to
// an S3-compatible object store. The disk copy stays authoritative (the
// engine needs a local path); a mirror failure is logged and never fails the
// upload.
type ArchivingStore struct {
	ArtifactStore
	archive Storage
}

// NewArchivingStore layers an object storage mirror over the primary store.
func NewArchivingStore(primary ArtifactStore, archive Storage) *ArchivingStore {
	return &ArchivingStore{ArtifactStore: primary, archive: archive}
}

func (s *ArchivingStore) Save(ctx context.Context, originalName string, r io.Reader) (Artifact, error) {
	art, err := s.ArtifactStore.Save(ctx, originalName, r)
	if err != nil {
		return art, err
	}

	f, err := os.Open(art.Path)
	if err != nil {
		logArchiveWarn(art.Name, err)
		return art, nil
	}
	defer f.Close()

	if _, err := s.archive.Put(ctx, "artifacts/"+art.Name, f, PutObjectOptions{
		Size:     art.Size,
		Metadata: map[string]string{"original-filename": originalName},
	}); err != nil {
		logArchiveWarn(art.Name, err)
	}
	return art, nil
}

func logArchiveWarn(name string, err error) {
	entry := map[string]any{
		"ts":       time.Now().Format(time.RFC3339Nano),
		"level":    "warn",
		"msg":      "artifact_archive_failed",
		"artifact": name,
		"error":    err.Error(),
	}
	if b, merr := json.Marshal(entry); merr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
