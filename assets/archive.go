package assets

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	rardecode "github.com/nwaples/rardecode/v2"
)

const (
	maxArchiveBytes  int64 = 200 * 1024 * 1024 // 200 MiB upper guard
	archiveFormatZip       = "zip"
	archiveFormatRar       = "rar"
)

// expandArchive unpacks an uploaded .zip or .rar archive into individual
// upload files, in archive order, so a whole folder of assets can be
// ingested as one batch. Directory entries and macOS metadata are skipped;
// entries using parent traversal abort the expansion.
func expandArchive(fileHeader *multipart.FileHeader) ([]UploadFile, error) {
	if fileHeader == nil {
		return nil, errors.New("assets: archive file not provided")
	}
	if fileHeader.Size > 0 && fileHeader.Size > maxArchiveBytes {
		return nil, fmt.Errorf("assets: archive size exceeds %d bytes", maxArchiveBytes)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("assets: open archive: %w", err)
	}
	defer src.Close()

	tmpFile, err := os.CreateTemp("", "asset-archive-*")
	if err != nil {
		return nil, fmt.Errorf("assets: create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	written, err := io.Copy(tmpFile, io.LimitReader(src, maxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("assets: copy archive: %w", err)
	}
	if written > maxArchiveBytes {
		return nil, fmt.Errorf("assets: archive size exceeds %d bytes", maxArchiveBytes)
	}

	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("assets: rewind temp file: %w", err)
	}
	format, err := detectArchiveFormat(tmpFile, fileHeader.Filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case archiveFormatZip:
		return expandZip(tmpFile, written)
	case archiveFormatRar:
		return expandRar(tmpFile.Name())
	default:
		return nil, errors.New("assets: unsupported archive format")
	}
}

func expandZip(tmpFile *os.File, size int64) ([]UploadFile, error) {
	reader, err := zip.NewReader(tmpFile, size)
	if err != nil {
		return nil, fmt.Errorf("assets: parse archive: %w", err)
	}

	var files []UploadFile
	for _, entry := range reader.File {
		sanitized, err := sanitizeArchiveEntry(entry.Name)
		if err != nil {
			return nil, err
		}
		if sanitized == "" || entry.FileInfo().IsDir() {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("assets: open entry %s: %w", sanitized, err)
		}
		file, err := bufferEntry(sanitized, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, errors.New("assets: archive is empty")
	}
	return files, nil
}

func expandRar(tmpPath string) ([]UploadFile, error) {
	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("assets: reopen temp archive: %w", err)
	}
	defer f.Close()

	rr, err := rardecode.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("assets: parse rar archive: %w", err)
	}

	var files []UploadFile
	for {
		header, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("assets: read rar entry: %w", err)
		}

		sanitized, err := sanitizeArchiveEntry(header.Name)
		if err != nil {
			return nil, err
		}
		if sanitized == "" || header.IsDir {
			if !header.IsDir {
				if _, err := io.Copy(io.Discard, rr); err != nil {
					return nil, fmt.Errorf("assets: discard rar entry: %w", err)
				}
			}
			continue
		}

		file, err := bufferEntry(sanitized, rr)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return nil, errors.New("assets: archive is empty")
	}
	return files, nil
}

// bufferEntry reads one archive entry into memory and derives its MIME type
// from the extension, sniffing the content when the extension is unknown.
func bufferEntry(relPath string, r io.Reader) (UploadFile, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return UploadFile{}, fmt.Errorf("assets: read entry %s: %w", relPath, err)
	}

	name := path.Base(relPath)
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mimeType == "" {
		mimeType = http.DetectContentType(buf.Bytes())
	}

	return UploadFile{
		Name:     name,
		Size:     int64(buf.Len()),
		MimeType: mimeType,
		Body:     &buf,
	}, nil
}

func detectArchiveFormat(file *os.File, originalName string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(originalName)))
	switch ext {
	case ".zip":
		return archiveFormatZip, nil
	case ".rar":
		return archiveFormatRar, nil
	}

	var header [8]byte
	n, err := file.ReadAt(header[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("assets: read archive header: %w", err)
	}
	headerSlice := header[:n]

	if len(headerSlice) >= 2 && headerSlice[0] == 0x50 && headerSlice[1] == 0x4b {
		return archiveFormatZip, nil
	}
	if len(headerSlice) >= 6 && bytes.Equal(headerSlice[:6], []byte{0x52, 0x61, 0x72, 0x21, 0x1a, 0x07}) {
		return archiveFormatRar, nil
	}

	if ext != "" {
		return "", fmt.Errorf("assets: unsupported archive format %q", ext)
	}
	return "", errors.New("assets: unsupported archive format, only .zip and .rar are accepted")
}

func sanitizeArchiveEntry(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", nil
	}

	normalized := strings.ReplaceAll(trimmed, "\\", "/")
	normalized = path.Clean(normalized)
	normalized = strings.TrimPrefix(normalized, "./")
	if normalized == "." || normalized == "" {
		return "", nil
	}
	if strings.HasPrefix(normalized, "../") {
		return "", fmt.Errorf("assets: archive entry %q uses parent traversal", name)
	}
	if strings.HasPrefix(strings.ToLower(normalized), "__macosx/") {
		return "", nil
	}
	return normalized, nil
}
