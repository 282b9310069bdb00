package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var errInvalidFilter = errors.New("assets: invalid filter")

// filterAll is the sentinel meaning "do not narrow on this attribute".
const filterAll = "all"

const dateLayout = "2006-01-02"

// ListFilters is the recognized filter set for catalog listings. Every
// present, non-empty, non-"all" attribute narrows the result; absent
// filters contribute no predicate. An absent limit means no limit (used by
// the export path).
type ListFilters struct {
	Category  string `form:"category"`
	AssetType string `form:"asset_type"`
	Region    string `form:"region"`
	State     string `form:"state"`
	Resort    string `form:"resort"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
	Sort      string `form:"sort"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// buildQuery composes the filters into a single AND-combined gorm query.
// Ordering and pagination are not applied here so the same composition
// serves both the listing and its total count.
func buildQuery(db *gorm.DB, f ListFilters) (*gorm.DB, error) {
	query := db.Model(&Asset{})

	exact := map[string]string{
		"category":   f.Category,
		"asset_type": f.AssetType,
		"region":     f.Region,
		"state":      f.State,
		"resort":     f.Resort,
	}
	for column, value := range exact {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || strings.EqualFold(trimmed, filterAll) {
			continue
		}
		query = query.Where(column+" = ?", trimmed)
	}

	if raw := strings.TrimSpace(f.StartDate); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date %q", errInvalidFilter, raw)
		}
		query = query.Where("uploaded_at >= ?", start)
	}
	if raw := strings.TrimSpace(f.EndDate); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date %q", errInvalidFilter, raw)
		}
		// Inclusive bound: anything uploaded before the following midnight.
		query = query.Where("uploaded_at < ?", end.AddDate(0, 0, 1))
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + search + "%"
		// Parenthesised so the OR cannot leak past the surrounding ANDs.
		query = query.Where("(file_name LIKE ? OR original_name LIKE ?)", pattern, pattern)
	}

	return query, nil
}

// orderClause maps the sort key onto a deterministic ordering. Non-date
// sorts carry uploaded_at DESC as the tiebreak so pagination stays stable.
func orderClause(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "name":
		return "file_name ASC, uploaded_at DESC"
	case "size":
		return "file_size DESC, uploaded_at DESC"
	case "type":
		return "asset_type ASC, uploaded_at DESC"
	default:
		return "uploaded_at DESC"
	}
}

// listAssets executes the composed query and returns the matching page
// together with the unpaginated total.
func listAssets(ctx context.Context, db *gorm.DB, f ListFilters) ([]Asset, int64, error) {
	query, err := buildQuery(db.WithContext(ctx), f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("assets: count assets: %w", err)
	}

	query = query.Order(orderClause(f.Sort))
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}

	var matches []Asset
	if err := query.Find(&matches).Error; err != nil {
		return nil, 0, fmt.Errorf("assets: list assets: %w", err)
	}
	return matches, total, nil
}
