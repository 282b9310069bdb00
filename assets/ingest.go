package assets

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"brandvault_back/storage"
)

// ErrorKind classifies per-file ingestion failures.
type ErrorKind string

const (
	ErrKindValidation  ErrorKind = "validation"
	ErrKindStorageOp   ErrorKind = "storage_operation_failed"
	ErrKindPersistence ErrorKind = "persistence_failed"
	ErrKindNotFound    ErrorKind = "not_found"
)

// IngestError carries the failure kind alongside the underlying cause so
// callers can distinguish validation problems from storage or persistence
// failures without string matching.
type IngestError struct {
	Kind ErrorKind
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// UploadFile is one file handed to the ingestor: its original name, size,
// MIME type and content. The body is consumed exactly once.
type UploadFile struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// Attributes are the user-supplied catalog attributes shared by every file
// in an ingestion batch.
type Attributes struct {
	Category  string
	AssetType string
	Region    string
	State     string
	Resort    string
	Tags      []string
}

// IngestResult reports one file's outcome. Exactly one of Asset or Err is
// set. StorageType distinguishes a remote upload from the local-fallback
// path so callers can tell "stored remotely" from "stored locally pending
// remote sync".
type IngestResult struct {
	FileName    string
	Asset       *Asset
	StorageType string
	Err         *IngestError
}

// Ingestor runs the upload pipeline: derive the folder path and canonical
// filename, place the bytes (remote blob store, or the local fallback when
// no remote store is configured), then persist the catalog record. Failures
// are per file; one bad file never aborts its siblings.
type Ingestor struct {
	db    *gorm.DB
	blob  storage.BlobClient
	local *storage.LocalStore
	now   func() time.Time
}

// NewIngestor wires the ingestor's collaborators. A nil blob client means
// the remote store is absent and every file goes to local storage.
func NewIngestor(db *gorm.DB, blob storage.BlobClient, local *storage.LocalStore) *Ingestor {
	return &Ingestor{
		db:    db,
		blob:  blob,
		local: local,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Ingest processes the batch and returns one result per input file, in
// input order. Blob writes and metadata inserts are not transactional
// across stores: a metadata failure after a successful upload leaves the
// blob in place (logged, not rolled back).
func (in *Ingestor) Ingest(ctx context.Context, files []UploadFile, attrs Attributes) []IngestResult {
	results := make([]IngestResult, 0, len(files))

	attrsErr := validateAttributes(attrs)

	remote := in.blob != nil
	if !remote && len(files) > 0 && attrsErr == nil {
		log.Printf("assets: remote blob store not configured, storing %d file(s) locally", len(files))
	}

	for i := range files {
		results = append(results, in.ingestOne(ctx, &files[i], attrs, attrsErr, remote))
	}
	return results
}

func (in *Ingestor) ingestOne(ctx context.Context, file *UploadFile, attrs Attributes, attrsErr error, remote bool) IngestResult {
	result := IngestResult{FileName: file.Name}

	if attrsErr != nil {
		result.Err = &IngestError{Kind: ErrKindValidation, Err: attrsErr}
		return result
	}
	if strings.TrimSpace(file.Name) == "" {
		result.Err = &IngestError{Kind: ErrKindValidation, Err: fmt.Errorf("file name is required")}
		return result
	}
	if file.Body == nil {
		result.Err = &IngestError{Kind: ErrKindValidation, Err: fmt.Errorf("file %q has no content", file.Name)}
		return result
	}

	now := in.now()
	year, month := now.Year(), int(now.Month())

	// TODO: before assigning, look up the newest record sharing this
	// filename stem and continue its version sequence.
	version := 1

	folderPath, stem := derivePath(attrs.Category, attrs.Region, attrs.State, attrs.Resort, attrs.AssetType, year, month, version)
	fileName := canonicalFileName(stem, file.Name)

	id := uuid.NewString()
	// With version frozen at 1, files sharing attributes derive the same
	// canonical name; the stored key carries an id chunk so uploads never
	// land on the same object.
	objectName := uniqueObjectName(fileName, id)

	asset := &Asset{
		ID:           id,
		FileName:     fileName,
		OriginalName: file.Name,
		Category:     attrs.Category,
		AssetType:    attrs.AssetType,
		Region:       attrs.Region,
		State:        attrs.State,
		Resort:       attrs.Resort,
		Year:         year,
		Month:        month,
		Version:      version,
		FileSize:     file.Size,
		MimeType:     file.MimeType,
		UploadedAt:   now,
	}
	asset.SetTags(attrs.Tags)

	if remote {
		folderID, err := storage.ResolveFolder(ctx, in.blob, folderPath)
		if err != nil {
			result.Err = &IngestError{Kind: ErrKindStorageOp, Err: err}
			return result
		}
		fileID, link, err := in.blob.UploadFile(ctx, folderID, objectName, file.MimeType, file.Body, file.Size)
		if err != nil {
			result.Err = &IngestError{Kind: ErrKindStorageOp, Err: fmt.Errorf("upload %s: %w", fileName, err)}
			return result
		}
		asset.StorageType = StorageRemote
		asset.RemoteFileID = fileID
		asset.RemoteFolderID = folderID
		asset.DirectLink = link
	} else {
		key, err := in.local.Save(folderPath+"/"+objectName, file.Body)
		if err != nil {
			result.Err = &IngestError{Kind: ErrKindStorageOp, Err: err}
			return result
		}
		asset.StorageType = StorageLocal
		asset.RemoteFileID = key
		asset.DirectLink = localFileURL(key)
	}

	if err := in.db.WithContext(ctx).Create(asset).Error; err != nil {
		// The uploaded blob is deliberately left in place; reconciling
		// orphans is an offline concern.
		log.Printf("assets: metadata insert failed for %s, blob %s orphaned: %v", fileName, asset.RemoteFileID, err)
		result.Err = &IngestError{Kind: ErrKindPersistence, Err: err}
		return result
	}

	result.Asset = asset
	result.StorageType = asset.StorageType
	return result
}

func validateAttributes(attrs Attributes) error {
	switch {
	case strings.TrimSpace(attrs.Category) == "":
		return fmt.Errorf("category is required")
	case !validCategory(attrs.Category):
		return fmt.Errorf("unknown category %q", attrs.Category)
	case strings.TrimSpace(attrs.AssetType) == "":
		return fmt.Errorf("asset type is required")
	case !validAssetType(attrs.AssetType):
		return fmt.Errorf("unknown asset type %q", attrs.AssetType)
	case strings.TrimSpace(attrs.Region) == "":
		return fmt.Errorf("region is required")
	case strings.TrimSpace(attrs.State) == "":
		return fmt.Errorf("state is required")
	default:
		return nil
	}
}
