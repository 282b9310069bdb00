package assets

import (
	"fmt"
	"path/filepath"
	"strings"
)

// folderRoot is the top of the remote folder hierarchy.
const folderRoot = "Assets"

// resortFallback substitutes an absent resort in both the folder path and
// the canonical filename stem.
const resortFallback = "Brand"

// derivePath maps asset attributes onto the remote folder hierarchy and the
// canonical filename stem. It is a pure derivation: inputs are not
// validated here, and malformed attributes simply yield a malformed path.
//
// Folder layout: Assets/{category}/{region}/{state}/{resort}/{year}/{MM}/{type}
// Filename stem: {year}_{MM}_{region}_{resort}_{type}_V{version}
func derivePath(category, region, state, resort, assetType string, year, month, version int) (folderPath, stem string) {
	place := strings.TrimSpace(resort)
	if place == "" {
		place = resortFallback
	}

	padded := fmt.Sprintf("%02d", month)

	folderPath = strings.Join([]string{
		folderRoot, category, region, state, place,
		fmt.Sprintf("%d", year), padded, assetType,
	}, "/")

	stem = fmt.Sprintf("%d_%s_%s_%s_%s_V%d", year, padded, region, place, assetType, version)
	return folderPath, stem
}

// canonicalFileName appends the original file's extension to the stem.
func canonicalFileName(stem, originalName string) string {
	return stem + strings.ToLower(filepath.Ext(originalName))
}

// uniqueObjectName disambiguates the stored object key with a chunk of the
// asset id so same-batch files sharing a canonical name cannot overwrite
// each other's bytes. The catalog filename itself stays canonical.
func uniqueObjectName(fileName, assetID string) string {
	chunk := assetID
	if len(chunk) > 8 {
		chunk = chunk[:8]
	}
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + "_" + chunk + ext
}
