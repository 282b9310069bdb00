package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"brandvault_back/storage"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Asset{}))
	return db
}

func newTestLocalStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	t.Setenv("ASSET_STORAGE_DIR", t.TempDir())
	store, err := storage.NewLocalStoreFromEnv()
	require.NoError(t, err)
	return store
}

// fakeBlob records folder and file operations so tests can assert on the
// exact side effects of an ingestion.
type fakeBlob struct {
	nextID      int
	folders     map[string]map[string]string
	files       map[string][]byte
	folderCalls int
	uploadCalls int
	failUpload  error
	failDelete  error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{
		folders: map[string]map[string]string{},
		files:   map[string][]byte{},
	}
}

func (f *fakeBlob) RootFolderID() string { return "root" }

func (f *fakeBlob) FindChildFolder(_ context.Context, parentID, name string) (string, error) {
	f.folderCalls++
	return f.folders[parentID][name], nil
}

func (f *fakeBlob) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	f.folderCalls++
	f.nextID++
	id := fmt.Sprintf("folder-%d", f.nextID)
	if f.folders[parentID] == nil {
		f.folders[parentID] = map[string]string{}
	}
	f.folders[parentID][name] = id
	return id, nil
}

func (f *fakeBlob) UploadFile(_ context.Context, folderID, name, _ string, body io.Reader, _ int64) (string, string, error) {
	f.uploadCalls++
	if f.failUpload != nil {
		return "", "", f.failUpload
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", "", err
	}
	id := folderID + "/" + name
	f.files[id] = buf.Bytes()
	return id, "https://blob.example/" + id, nil
}

func (f *fakeBlob) DeleteFile(_ context.Context, fileID string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.files, fileID)
	return nil
}

func validTestAttrs() Attributes {
	return Attributes{
		Category:  CategoryBrand,
		AssetType: TypeStatic,
		Region:    "West",
		State:     "CA",
		Resort:    "Summit Lodge",
		Tags:      []string{"winter", "hero"},
	}
}

func testUpload(name, content string) UploadFile {
	return UploadFile{
		Name:     name,
		Size:     int64(len(content)),
		MimeType: "image/png",
		Body:     bytes.NewReader([]byte(content)),
	}
}
