package assets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToggleFavoriteParity(t *testing.T) {
	db := openTestDB(t)
	module := newModule(db, nil, newTestLocalStore(t))
	asset := seedAsset(t, db, nil)
	require.False(t, asset.Favorite)

	once, err := module.toggleFavorite(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.True(t, once.Favorite)

	twice, err := module.toggleFavorite(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.False(t, twice.Favorite, "double toggle restores the original value")

	var stored Asset
	require.NoError(t, db.First(&stored, "id = ?", asset.ID).Error)
	assert.False(t, stored.Favorite)
}

func TestUpdateMutableFields(t *testing.T) {
	db := openTestDB(t)
	module := newModule(db, nil, newTestLocalStore(t))
	asset := seedAsset(t, db, nil)

	region := "East"
	tags := []string{"refresh", "2026"}
	updated, err := module.updateAsset(context.Background(), asset.ID, updateForm{
		Region: &region,
		Tags:   &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "East", updated.Region)
	assert.Equal(t, tags, updated.TagList())

	// Creation-time fields are untouched by the update surface.
	assert.Equal(t, asset.FileName, updated.FileName)
	assert.Equal(t, asset.Version, updated.Version)
	assert.Equal(t, asset.DirectLink, updated.DirectLink)
}

func TestUpdateRejectsUnknownEnums(t *testing.T) {
	db := openTestDB(t)
	module := newModule(db, nil, newTestLocalStore(t))
	asset := seedAsset(t, db, nil)

	bogus := "Seasonal"
	_, err := module.updateAsset(context.Background(), asset.ID, updateForm{Category: &bogus})
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidUpdate)

	_, err = module.updateAsset(context.Background(), asset.ID, updateForm{AssetType: &bogus})
	require.Error(t, err)
	assert.ErrorIs(t, err, errInvalidUpdate)
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	db := openTestDB(t)
	blob := newFakeBlob()
	module := newModule(db, blob, newTestLocalStore(t))

	asset := seedAsset(t, db, func(a *Asset) { a.RemoteFileID = "folder-1/file.png" })
	blob.files[asset.RemoteFileID] = []byte("x")

	require.NoError(t, module.deleteAsset(context.Background(), asset.ID))
	assert.Empty(t, blob.files)

	_, err := module.fetchAsset(context.Background(), asset.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteProceedsWhenBlobDeleteFails(t *testing.T) {
	db := openTestDB(t)
	blob := newFakeBlob()
	blob.failDelete = errors.New("permission denied")
	module := newModule(db, blob, newTestLocalStore(t))

	asset := seedAsset(t, db, func(a *Asset) { a.RemoteFileID = "folder-1/file.png" })
	blob.files[asset.RemoteFileID] = []byte("x")

	require.NoError(t, module.deleteAsset(context.Background(), asset.ID))

	_, err := module.fetchAsset(context.Background(), asset.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "metadata delete is not conditioned on blob deletion")
	assert.Len(t, blob.files, 1, "failed blob delete leaves the object orphaned")
}

func TestDeleteLocalAsset(t *testing.T) {
	db := openTestDB(t)
	local := newTestLocalStore(t)
	module := newModule(db, nil, local)

	key, err := local.Save("Assets/a.png", strings.NewReader("payload"))
	require.NoError(t, err)
	asset := seedAsset(t, db, func(a *Asset) {
		a.StorageType = StorageLocal
		a.RemoteFileID = key
	})

	require.NoError(t, module.deleteAsset(context.Background(), asset.ID))

	_, err = local.Open(key)
	require.Error(t, err)
}

func TestFetchAssetNotFound(t *testing.T) {
	db := openTestDB(t)
	module := newModule(db, nil, newTestLocalStore(t))

	_, err := module.fetchAsset(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
