package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBlob is an in-memory BlobClient used to exercise the resolver walk
// without a real object store.
type memoryBlob struct {
	nextID     int
	folders    map[string]map[string]string // parentID -> name -> childID
	files      map[string][]byte
	failCreate error
	creates    int
}

func newMemoryBlob() *memoryBlob {
	return &memoryBlob{
		folders: map[string]map[string]string{},
		files:   map[string][]byte{},
	}
}

func (m *memoryBlob) RootFolderID() string { return "root" }

func (m *memoryBlob) FindChildFolder(_ context.Context, parentID, name string) (string, error) {
	return m.folders[parentID][name], nil
}

func (m *memoryBlob) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	if m.failCreate != nil {
		return "", m.failCreate
	}
	m.nextID++
	m.creates++
	id := fmt.Sprintf("folder-%d", m.nextID)
	if m.folders[parentID] == nil {
		m.folders[parentID] = map[string]string{}
	}
	m.folders[parentID][name] = id
	return id, nil
}

func (m *memoryBlob) UploadFile(_ context.Context, folderID, name, _ string, body io.Reader, _ int64) (string, string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", "", err
	}
	id := folderID + "/" + name
	m.files[id] = buf.Bytes()
	return id, "https://blob.example/" + id, nil
}

func (m *memoryBlob) DeleteFile(_ context.Context, fileID string) error {
	delete(m.files, fileID)
	return nil
}

func TestResolveFolderCreatesEachSegmentOnce(t *testing.T) {
	blob := newMemoryBlob()
	ctx := context.Background()

	first, err := ResolveFolder(ctx, blob, "Assets/Brand/West/CA/Brand/2026/08/Static")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 8, blob.creates)

	second, err := ResolveFolder(ctx, blob, "Assets/Brand/West/CA/Brand/2026/08/Static")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 8, blob.creates, "second resolve must not create duplicates")
}

func TestResolveFolderSharesAncestors(t *testing.T) {
	blob := newMemoryBlob()
	ctx := context.Background()

	_, err := ResolveFolder(ctx, blob, "Assets/Brand/West")
	require.NoError(t, err)
	_, err = ResolveFolder(ctx, blob, "Assets/Brand/East")
	require.NoError(t, err)

	// Assets and Brand are shared; only East is new on the second walk.
	assert.Equal(t, 4, blob.creates)
}

func TestResolveFolderSkipsEmptySegments(t *testing.T) {
	blob := newMemoryBlob()

	leaf, err := ResolveFolder(context.Background(), blob, "/Assets//Brand/")
	require.NoError(t, err)
	assert.Equal(t, 2, blob.creates)
	assert.Equal(t, blob.folders["folder-1"]["Brand"], leaf)
}

func TestResolveFolderSurfacesStorageErrors(t *testing.T) {
	blob := newMemoryBlob()
	boom := errors.New("transport down")

	_, err := ResolveFolder(context.Background(), blob, "Assets/Brand")
	require.NoError(t, err)

	blob.failCreate = boom
	_, err = ResolveFolder(context.Background(), blob, "Assets/Brand/West")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	// Ancestors created before the failure stay in place.
	assert.Equal(t, 2, blob.creates)
}
