package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"brandvault_back/storage"
)

// Module owns the catalog routes and their collaborators. The blob client
// is nil when the remote store is unconfigured; the ingestor then runs in
// local-fallback mode.
type Module struct {
	db       *gorm.DB
	blob     storage.BlobClient
	local    *storage.LocalStore
	ingestor *Ingestor
}

type uploadForm struct {
	Category  string `form:"category"`
	AssetType string `form:"asset_type"`
	Region    string `form:"region"`
	State     string `form:"state"`
	Resort    string `form:"resort"`
	Tags      string `form:"tags"`
}

type updateForm struct {
	Category  *string   `json:"category"`
	AssetType *string   `json:"asset_type"`
	Region    *string   `json:"region"`
	State     *string   `json:"state"`
	Resort    *string   `json:"resort"`
	Tags      *[]string `json:"tags"`
	Favorite  *bool     `json:"favorite"`
}

type failureDTO struct {
	File   string `json:"file"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func RegisterRoutes(router *gin.Engine) (*Module, error) {
	db, err := openDatabaseFromEnv()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Asset{}); err != nil {
		return nil, fmt.Errorf("assets: migrate tables: %w", err)
	}

	local, err := storage.NewLocalStoreFromEnv()
	if err != nil {
		return nil, err
	}

	var blob storage.BlobClient
	if remote, err := storage.NewBlobClientFromEnv(); err != nil {
		return nil, err
	} else if remote != nil {
		blob = remote
	}

	module := newModule(db, blob, local)
	module.register(router)
	return module, nil
}

func (m *Module) register(router *gin.Engine) {
	group := router.Group("/assets")
	group.POST("", m.handleUpload)
	group.POST("/archive", m.handleUploadArchive)
	group.GET("", m.handleList)
	group.GET("/export", m.handleExport)
	group.GET("/files/*filepath", m.handleServeLocalFile)
	group.GET("/:id", m.handleGet)
	group.PATCH("/:id", m.handleUpdate)
	group.POST("/:id/favorite", m.handleToggleFavorite)
	group.DELETE("/:id", m.handleDelete)
}

func newModule(db *gorm.DB, blob storage.BlobClient, local *storage.LocalStore) *Module {
	return &Module{
		db:       db,
		blob:     blob,
		local:    local,
		ingestor: NewIngestor(db, blob, local),
	}
}

func (m *Module) handleUpload(c *gin.Context) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form payload"})
		return
	}

	multipartForm, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart payload"})
		return
	}
	headers := multipartForm.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	files := make([]UploadFile, 0, len(headers))
	closers := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, closer := range closers {
			closer.Close()
		}
	}()
	for _, header := range headers {
		file, src, err := fromFileHeader(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		closers = append(closers, src)
		files = append(files, file)
	}

	m.respondWithResults(c, m.ingestor.Ingest(c.Request.Context(), files, form.attributes()))
}

func (m *Module) handleUploadArchive(c *gin.Context) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form payload"})
		return
	}

	archive, err := c.FormFile("archive")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "archive file is required"})
		return
	}

	files, err := expandArchive(archive)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m.respondWithResults(c, m.ingestor.Ingest(c.Request.Context(), files, form.attributes()))
}

func (m *Module) respondWithResults(c *gin.Context, results []IngestResult) {
	succeeded := make([]*Asset, 0, len(results))
	failed := make([]failureDTO, 0)
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, failureDTO{
				File:   result.FileName,
				Kind:   string(result.Err.Kind),
				Reason: result.Err.Err.Error(),
			})
			continue
		}
		succeeded = append(succeeded, result.Asset)
	}

	c.JSON(http.StatusOK, gin.H{"succeeded": succeeded, "failed": failed})
}

func (m *Module) handleList(c *gin.Context) {
	var filters ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	matches, total, err := listAssets(c.Request.Context(), m.db, filters)
	if err != nil {
		if errors.Is(err, errInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assets"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": matches, "total": total})
}

func (m *Module) handleGet(c *gin.Context) {
	asset, err := m.fetchAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

func (m *Module) handleUpdate(c *gin.Context) {
	var form updateForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update payload"})
		return
	}

	asset, err := m.updateAsset(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		case errors.Is(err, errInvalidUpdate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update asset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

func (m *Module) handleToggleFavorite(c *gin.Context) {
	asset, err := m.toggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle favorite"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

func (m *Module) handleDelete(c *gin.Context) {
	if err := m.deleteAsset(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete asset"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (m *Module) handleServeLocalFile(c *gin.Context) {
	if m.local == nil {
		c.Status(http.StatusNotFound)
		return
	}

	target, err := m.local.Path(strings.TrimPrefix(c.Param("filepath"), "/"))
	if err != nil {
		c.Status(http.StatusForbidden)
		return
	}
	if _, err := os.Stat(target); err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(target)
}

func (f uploadForm) attributes() Attributes {
	return Attributes{
		Category:  strings.TrimSpace(f.Category),
		AssetType: strings.TrimSpace(f.AssetType),
		Region:    strings.TrimSpace(f.Region),
		State:     strings.TrimSpace(f.State),
		Resort:    strings.TrimSpace(f.Resort),
		Tags:      splitTags(f.Tags),
	}
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(tag)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func fromFileHeader(header *multipart.FileHeader) (UploadFile, multipart.File, error) {
	src, err := header.Open()
	if err != nil {
		return UploadFile{}, nil, fmt.Errorf("open %s: %w", header.Filename, err)
	}

	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}

	return UploadFile{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: mimeType,
		Body:     src,
	}, src, nil
}

func localFileURL(key string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return "/assets/files/" + strings.Join(parts, "/")
}

func (m *Module) fetchAsset(ctx context.Context, id string) (*Asset, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, errors.New("missing id")
	}

	var asset Asset
	if err := m.db.WithContext(ctx).First(&asset, "id = ?", trimmed).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}
