package processor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"

	"webp2jpg/internal/converter"
	"webp2jpg/internal/models"
)

// ProcessArchive extracts a ZIP into a scratch directory, converts its WebP
// members in place and re-packs the tree as output_dir/<archive name>.
// The scratch directory is removed on every return path.
func (p *Processor) ProcessArchive(item models.InputItem) models.ItemResult {
	tmpDir, err := os.MkdirTemp("", "webp2jpg-zip-")
	if err != nil {
		return failed(item, &models.ArchiveError{Op: models.ArchiveExtract, Path: item.Path, Err: err})
	}
	defer os.RemoveAll(tmpDir)

	p.logf("  extracting archive")
	if err := extractZip(item.Path, tmpDir); err != nil {
		return failed(item, &models.ArchiveError{Op: models.ArchiveExtract, Path: item.Path, Err: err})
	}

	scan, err := scanTree(tmpDir)
	if err != nil {
		return failed(item, &models.ArchiveError{Op: models.ArchiveExtract, Path: item.Path, Err: err})
	}
	if len(scan.images) == 0 {
		p.logf("  no webp files found")
		return failed(item, fmt.Errorf("%s: %w", item.Path, models.ErrNoImagesFound))
	}

	p.logf("  %d entries extracted", scan.entries)
	p.logScan(scan)

	res := models.ItemResult{Item: item}
	for _, src := range scan.images {
		task := models.ConversionTask{Source: src, Destination: converter.JPEGPath(src)}
		rel, _ := filepath.Rel(tmpDir, src)

		if err := p.convertInPlace(task); err != nil {
			res.Failed++
			p.logger.Warn("archive member conversion failed", "archive", item.Path, "member", rel, "error", err)
			p.logf("    %s failed: %v", filepath.Base(rel), err)
			continue
		}
		res.Converted++
	}

	res.Outcome = containerOutcome(res.Converted, res.Failed)
	if res.Converted == 0 {
		return res
	}
	p.logf("  %d files converted", res.Converted)

	outPath := filepath.Join(p.outputDir, filepath.Base(item.Path))
	p.logf("  repacking")
	if err := writeZip(tmpDir, outPath); err != nil {
		p.logger.Warn("archive write failed", "path", outPath, "error", err)
		return failed(item, &models.ArchiveError{Op: models.ArchiveWrite, Path: outPath, Err: err})
	}

	res.Output = outPath
	return res
}

// convertInPlace writes the JPEG next to the source and removes the source,
// so the re-pack picks up converted files only.
func (p *Processor) convertInPlace(task models.ConversionTask) error {
	if err := converter.ConvertFile(task.Source, task.Destination); err != nil {
		return err
	}
	if err := os.Remove(task.Source); err != nil {
		// Keep the tree consistent: the original stays, the copy goes
		_ = os.Remove(task.Destination)
		return fmt.Errorf("failed to remove %s: %w", task.Source, err)
	}
	return nil
}

// extractZip unpacks every member of the archive at src under dest
func extractZip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := memberPath(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}

	return nil
}

// memberPath resolves an archive member name under dest, refusing names
// that would escape it.
func memberPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal member path %q", name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeZip packs every regular file under root into a new archive at dst.
// Member names are the slash-separated paths relative to root.
func writeZip(root, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)
	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			return addZipMember(zw, path, filepath.ToSlash(rel))
		},
	})

	if walkErr != nil {
		zw.Close()
		out.Close()
		return walkErr
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addZipMember(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(w, in)
	return err
}
