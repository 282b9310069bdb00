package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// BlobClient is the minimal contract the catalog needs from a remote object
// store with a hierarchical folder namespace. Implementations return opaque
// folder/file identifiers; callers never interpret them.
type BlobClient interface {
	// FindChildFolder looks up a direct child folder by exact name.
	// It returns ("", nil) when no such child exists.
	FindChildFolder(ctx context.Context, parentID, name string) (string, error)

	// CreateFolder creates a child folder under parentID and returns its id.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)

	// UploadFile stores the file under the given folder and returns the file
	// id together with a publicly reachable link.
	UploadFile(ctx context.Context, folderID, name, mimeType string, body io.Reader, size int64) (fileID string, link string, err error)

	// DeleteFile removes the file with the given id.
	DeleteFile(ctx context.Context, fileID string) error

	// RootFolderID returns the identifier of the hierarchy root.
	RootFolderID() string
}

// ResolveFolder walks the slash-separated path top-down from the store's
// root, descending into each segment and creating it when absent, and
// returns the leaf folder id. Repeated calls with the same path are
// idempotent in effect; concurrent callers racing on a not-yet-existing
// segment may still create duplicates (known limitation, not guarded here).
// Any lookup or create failure aborts the walk; already-created ancestors
// are left in place.
func ResolveFolder(ctx context.Context, client BlobClient, path string) (string, error) {
	current := client.RootFolderID()
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		childID, err := client.FindChildFolder(ctx, current, segment)
		if err != nil {
			return "", fmt.Errorf("storage: lookup folder %q: %w", segment, err)
		}
		if childID == "" {
			childID, err = client.CreateFolder(ctx, current, segment)
			if err != nil {
				return "", fmt.Errorf("storage: create folder %q: %w", segment, err)
			}
		}
		current = childID
	}
	return current, nil
}
