package assets

import (
	"context"
	"errors"
	"fmt"
	"log"
)

var errInvalidUpdate = errors.New("assets: invalid update")

// updateAsset applies the mutable attribute fields. Stored filename,
// storage references and year/month/version are never touched here; the
// update surface simply does not expose them.
func (m *Module) updateAsset(ctx context.Context, id string, form updateForm) (*Asset, error) {
	asset, err := m.fetchAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	if form.Category != nil {
		if !validCategory(*form.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", errInvalidUpdate, *form.Category)
		}
		asset.Category = *form.Category
	}
	if form.AssetType != nil {
		if !validAssetType(*form.AssetType) {
			return nil, fmt.Errorf("%w: unknown asset type %q", errInvalidUpdate, *form.AssetType)
		}
		asset.AssetType = *form.AssetType
	}
	if form.Region != nil {
		asset.Region = *form.Region
	}
	if form.State != nil {
		asset.State = *form.State
	}
	if form.Resort != nil {
		asset.Resort = *form.Resort
	}
	if form.Tags != nil {
		asset.SetTags(*form.Tags)
	}
	if form.Favorite != nil {
		asset.Favorite = *form.Favorite
	}

	if err := m.db.WithContext(ctx).Save(asset).Error; err != nil {
		return nil, fmt.Errorf("assets: update asset %s: %w", id, err)
	}
	return asset, nil
}

// toggleFavorite flips the favorite flag with a read-modify-write. No
// concurrent-toggle guarantee is promised.
func (m *Module) toggleFavorite(ctx context.Context, id string) (*Asset, error) {
	asset, err := m.fetchAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	asset.Favorite = !asset.Favorite
	if err := m.db.WithContext(ctx).Model(asset).Update("favorite", asset.Favorite).Error; err != nil {
		return nil, fmt.Errorf("assets: toggle favorite for %s: %w", id, err)
	}
	return asset, nil
}

// deleteAsset removes the backing blob first, then the catalog record. The
// metadata delete proceeds even when the blob delete fails; the blob is
// then orphaned and logged, so a lookup after delete always reports
// not-found.
func (m *Module) deleteAsset(ctx context.Context, id string) error {
	asset, err := m.fetchAsset(ctx, id)
	if err != nil {
		return err
	}

	switch asset.StorageType {
	case StorageRemote:
		if m.blob != nil && asset.RemoteFileID != "" {
			if err := m.blob.DeleteFile(ctx, asset.RemoteFileID); err != nil {
				log.Printf("assets: blob delete failed for %s, object %s orphaned: %v", asset.ID, asset.RemoteFileID, err)
			}
		}
	case StorageLocal:
		if m.local != nil && asset.RemoteFileID != "" {
			if err := m.local.Remove(asset.RemoteFileID); err != nil {
				log.Printf("assets: local delete failed for %s, file %s orphaned: %v", asset.ID, asset.RemoteFileID, err)
			}
		}
	}

	if err := m.db.WithContext(ctx).Delete(&Asset{}, "id = ?", asset.ID).Error; err != nil {
		return fmt.Errorf("assets: delete asset %s: %w", id, err)
	}
	return nil
}
