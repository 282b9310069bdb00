package assets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var exportColumns = []string{
	"id", "file_name", "original_name", "category", "asset_type",
	"region", "state", "resort", "year", "month", "version",
	"file_size", "mime_type", "uploaded_at", "tags", "favorite",
	"storage_link",
}

// handleExport streams the full filtered catalog as CSV. The composed query
// runs without a limit; the active filters still apply, so an export can be
// scoped the same way as a listing.
func (m *Module) handleExport(c *gin.Context) {
	var filters ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	filters.Limit = 0
	filters.Offset = 0

	matches, _, err := listAssets(c.Request.Context(), m.db, filters)
	if err != nil {
		if errors.Is(err, errInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export assets"})
		}
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=assets-%s.csv", time.Now().UTC().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write(exportColumns); err != nil {
		return
	}
	for i := range matches {
		if err := writer.Write(exportRow(&matches[i])); err != nil {
			return
		}
	}
	writer.Flush()
}

func exportRow(a *Asset) []string {
	return []string{
		a.ID,
		a.FileName,
		a.OriginalName,
		a.Category,
		a.AssetType,
		a.Region,
		a.State,
		a.Resort,
		strconv.Itoa(a.Year),
		strconv.Itoa(a.Month),
		strconv.Itoa(a.Version),
		strconv.FormatInt(a.FileSize, 10),
		a.MimeType,
		a.UploadedAt.UTC().Format(time.RFC3339),
		strings.Join(a.TagList(), ","),
		strconv.FormatBool(a.Favorite),
		a.DirectLink,
	}
}
