package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tts-server-go/internal/domain/artifact"
)

func newTestRepository(t *testing.T) *ArtifactRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { Close(db) })
	return NewArtifactRepository(db)
}

func sampleArtifact(id string, createdAt time.Time) *artifact.Artifact {
	return &artifact.Artifact{
		ID:         id,
		Filename:   id + ".wav",
		SampleRate: 16000,
		Size:       32044,
		CreatedAt:  createdAt,
	}
}

func TestArtifactRepository_SaveAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := sampleArtifact("11111111-1111-1111-1111-111111111111", time.Now())
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	found, err := repo.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found == nil {
		t.Fatal("saved artifact not found")
	}
	if found.Filename != a.Filename || found.SampleRate != a.SampleRate || found.Size != a.Size {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", found, a)
	}
}

func TestArtifactRepository_FindMissing(t *testing.T) {
	repo := newTestRepository(t)

	found, err := repo.FindByID(context.Background(), "22222222-2222-2222-2222-222222222222")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for missing record, got %+v", found)
	}
}

func TestArtifactRepository_ListOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now()

	oldArtifact := sampleArtifact("33333333-3333-3333-3333-333333333333", now.Add(-2*time.Hour))
	freshArtifact := sampleArtifact("44444444-4444-4444-4444-444444444444", now)
	for _, a := range []*artifact.Artifact{oldArtifact, freshArtifact} {
		if err := repo.Save(ctx, a); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	expired, err := repo.ListOlderThan(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListOlderThan() error = %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired artifact, got %d", len(expired))
	}
	if expired[0].ID != oldArtifact.ID {
		t.Errorf("wrong artifact expired: %s", expired[0].ID)
	}
}

func TestArtifactRepository_Delete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := sampleArtifact("55555555-5555-5555-5555-555555555555", time.Now())
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	found, err := repo.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found != nil {
		t.Error("record still present after delete")
	}

	// 删除不存在的记录不报错
	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Errorf("deleting missing record should be a no-op, got %v", err)
	}
}
