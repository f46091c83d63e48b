package preservation_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/your-org/preservd/internal/preservation"
	"github.com/your-org/preservd/pkg/docstore"
)

// fakeObjectStore keeps uploaded objects in memory.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	tags    map[string]map[string]string
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: map[string][]byte{},
		tags:    map[string]map[string]string{},
	}
}

func (f *fakeObjectStore) Put(_ context.Context, bucket, key string, reader io.Reader, _ int64, metadata map[string]string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
	f.tags[bucket+"/"+key] = metadata
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, bucket, key string, dest io.Writer) error {
	f.mu.Lock()
	data, ok := f.objects[bucket+"/"+key]
	f.mu.Unlock()
	if !ok {
		return errors.New("object not found")
	}
	_, err := io.Copy(dest, bytes.NewReader(data))
	return err
}

func (f *fakeObjectStore) Close() error {
	return nil
}

// fakePublisher records published notifications.
type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, _ []byte, value []byte, _ map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, value)
	return nil
}

func newTestStore() (*docstore.Memory, *preservation.ArtifactStore) {
	db := docstore.NewMemory()
	return db, preservation.NewArtifactStore(db)
}

// seedArtifact inserts a minimal ready artifact and returns its id.
func seedArtifact(t *testing.T, store *preservation.ArtifactStore) string {
	t.Helper()
	now := time.Now().UTC()
	id, err := store.Insert(context.Background(), &preservation.Artifact{
		Title:   "Seeded Artifact",
		Status:  preservation.StatusProcessing,
		Version: 1,
		ArchivalInfo: preservation.ArchivalInfo{
			CreationDate: "1965-03-15",
		},
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return id
}
