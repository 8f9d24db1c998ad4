package butler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/util"
)

// documentExts maps recognized document extensions to MIME types. Anything
// else in this set is treated as plain text.
var documentExts = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "",
	".md":   "",
	".html": "",
}

// FileRepository resolves source references as filesystem paths. It stands
// in for the host library when jobs are enqueued from the CLI.
type FileRepository struct {
	// Root, when set, resolves relative references under a library
	// directory.
	Root string
}

var _ ItemRepository = (*FileRepository)(nil)

func (r *FileRepository) path(sourceRef string) string {
	if r.Root != "" && !filepath.IsAbs(sourceRef) {
		return filepath.Join(r.Root, sourceRef)
	}
	return sourceRef
}

// Resolve reads the referenced file. PDFs come back as raw bytes for
// providers that accept document attachments; everything else is read as
// text.
func (r *FileRepository) Resolve(ctx context.Context, sourceRef string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := r.path(sourceRef)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ext := strings.ToLower(filepath.Ext(path))
	if mime := documentExts[ext]; mime != "" || util.IsLikelyBinary(data) {
		if mime == "" {
			mime = "application/octet-stream"
		}
		return &Document{Title: title, Data: data, MIMEType: mime}, nil
	}

	text, err := util.CleanDocumentText(data, path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return &Document{Title: title, Text: text}, nil
}

// DocumentMeta holds metadata about a discovered document file.
type DocumentMeta struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

/*
DiscoverDocuments recursively finds analyzable documents under rootDir.

It returns a DocumentMeta for each file whose extension is a recognized
document type. Files that cannot be stat'd are skipped.
*/
func DiscoverDocuments(ctx context.Context, rootDir string) ([]DocumentMeta, error) {
	var files []DocumentMeta
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := documentExts[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			// Skip files we can't stat, but continue
			return nil
		}
		files = append(files, DocumentMeta{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
