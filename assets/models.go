package assets

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Catalog categories.
const (
	CategoryBrand    = "Brand"
	CategoryTactical = "Tactical"
)

// Asset types.
const (
	TypeStatic   = "Static"
	TypeCarousel = "Carousel"
	TypeVideo    = "Video"
	TypeEmailer  = "Emailer"
)

// Storage backends recorded on an asset.
const (
	StorageRemote = "remote"
	StorageLocal  = "local"
)

// Asset is a single catalogued file: the canonical stored filename plus the
// structured metadata used for search, filtering and export. The storage
// reference fields (file/folder ids, links) are written once at ingestion
// and never mutated afterwards.
type Asset struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	FileName     string `gorm:"size:255;not null" json:"file_name"`
	OriginalName string `gorm:"size:255;not null" json:"original_name"`

	Category  string `gorm:"size:32;not null;index" json:"category"`
	AssetType string `gorm:"size:32;not null;index" json:"asset_type"`
	Region    string `gorm:"size:100;not null;index" json:"region"`
	State     string `gorm:"size:100;not null;index" json:"state"`
	Resort    string `gorm:"size:100;index" json:"resort,omitempty"`

	Year    int `gorm:"not null" json:"year"`
	Month   int `gorm:"not null" json:"month"`
	Version int `gorm:"not null;default:1" json:"version"`

	FileSize int64  `gorm:"not null" json:"file_size"`
	MimeType string `gorm:"size:100" json:"mime_type"`

	StorageType    string  `gorm:"size:16;not null;default:'remote'" json:"storage_type"`
	RemoteFileID   string  `gorm:"size:512" json:"remote_file_id,omitempty"`
	RemoteFolderID string  `gorm:"size:512" json:"remote_folder_id,omitempty"`
	DirectLink     string  `gorm:"size:1024" json:"direct_link,omitempty"`
	VersionsLink   *string `gorm:"size:1024" json:"versions_link,omitempty"`
	ThumbnailLink  *string `gorm:"size:1024" json:"thumbnail_link,omitempty"`

	Tags     datatypes.JSON `json:"tags"`
	Favorite bool           `gorm:"not null;default:false" json:"favorite"`

	UploadedAt time.Time `gorm:"index" json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

// TagList decodes the stored tag array, preserving insertion order. A
// missing or malformed column yields an empty list.
func (a *Asset) TagList() []string {
	if len(a.Tags) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(a.Tags, &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags encodes the tag list into the JSON column.
func (a *Asset) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return
	}
	a.Tags = datatypes.JSON(encoded)
}

func validCategory(value string) bool {
	switch value {
	case CategoryBrand, CategoryTactical:
		return true
	default:
		return false
	}
}

func validAssetType(value string) bool {
	switch value {
	case TypeStatic, TypeCarousel, TypeVideo, TypeEmailer:
		return true
	default:
		return false
	}
}
