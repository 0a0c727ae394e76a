package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"webp2jpg/internal/models"
)

// Rejected describes an input path that will not reach the job
type Rejected struct {
	Path string
	Err  error
}

// Skipped reports whether the path was passed over on purpose (already a
// jpg/png) rather than refused.
func (r Rejected) Skipped() bool {
	return errors.Is(r.Err, models.ErrAlreadyTargetFormat)
}

// Classify inspects a path and tags it as an image, archive or directory
func Classify(path string) (models.InputItem, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.InputItem{}, fmt.Errorf("%s: %w", path, models.ErrItemNotFound)
		}
		return models.InputItem{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return models.InputItem{Path: path, Kind: models.KindDirectory}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return models.InputItem{Path: path, Kind: models.KindArchive}, nil
	case ".webp":
		return models.InputItem{Path: path, Kind: models.KindSingleImage}, nil
	case ".jpg", ".jpeg", ".png":
		return models.InputItem{}, fmt.Errorf("%s: %w", path, models.ErrAlreadyTargetFormat)
	default:
		return models.InputItem{}, fmt.Errorf("%s: %w", path, models.ErrUnsupportedItemType)
	}
}

// ClassifyAll classifies every path in order. Duplicate paths are dropped,
// keeping the first occurrence.
func ClassifyAll(paths []string) ([]models.InputItem, []Rejected) {
	var items []models.InputItem
	var rejected []Rejected
	seen := make(map[string]bool, len(paths))

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := filepath.Clean(p)
		if seen[key] {
			continue
		}
		seen[key] = true

		item, err := Classify(p)
		if err != nil {
			rejected = append(rejected, Rejected{Path: p, Err: err})
			continue
		}
		items = append(items, item)
	}

	return items, rejected
}
