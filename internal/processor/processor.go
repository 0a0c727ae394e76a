package processor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/karrick/godirwalk"

	"webp2jpg/internal/converter"
	"webp2jpg/internal/models"
)

// LogFunc receives one line of user-facing narration
type LogFunc func(format string, args ...any)

// Processor converts the WebP images reachable from one input item and
// rebuilds the item's shape under the output directory.
type Processor struct {
	outputDir string
	logger    *slog.Logger
	logf      LogFunc
}

// New creates a processor writing into outputDir. logf may be nil.
func New(outputDir string, logger *slog.Logger, logf LogFunc) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Processor{outputDir: outputDir, logger: logger, logf: logf}
}

// Process dispatches on the item kind
func (p *Processor) Process(item models.InputItem) models.ItemResult {
	start := time.Now()

	var res models.ItemResult
	switch item.Kind {
	case models.KindSingleImage:
		res = p.ProcessSingle(item)
	case models.KindDirectory:
		res = p.ProcessDirectory(item)
	case models.KindArchive:
		res = p.ProcessArchive(item)
	default:
		res = failed(item, fmt.Errorf("%s: %w", item.Path, models.ErrUnsupportedItemType))
	}

	res.Duration = time.Since(start)
	return res
}

// ProcessSingle converts one WebP file to output_dir/<name>.jpg
func (p *Processor) ProcessSingle(item models.InputItem) models.ItemResult {
	task := models.ConversionTask{
		Source:      item.Path,
		Destination: filepath.Join(p.outputDir, converter.JPEGPath(filepath.Base(item.Path))),
	}

	p.logf("  decoding %s", filepath.Base(task.Source))
	if err := converter.ConvertFile(task.Source, task.Destination); err != nil {
		p.logger.Warn("image conversion failed", "path", task.Source, "error", err)
		p.logf("  failed: %v", err)
		res := failed(item, err)
		res.Failed = 1
		return res
	}

	p.logf("  saved %s", filepath.Base(task.Destination))
	return models.ItemResult{
		Item:      item,
		Outcome:   models.Outcome{Status: models.OutcomeSuccess},
		Converted: 1,
		Output:    task.Destination,
	}
}

// ProcessDirectory mirrors the directory tree under output_dir/<dir name>,
// converting every WebP file found at any depth.
func (p *Processor) ProcessDirectory(item models.InputItem) models.ItemResult {
	root := filepath.Clean(item.Path)
	outRoot := filepath.Join(p.outputDir, filepath.Base(root))

	p.logf("  scanning directory")
	scan, err := scanTree(root)
	if err != nil {
		return failed(item, fmt.Errorf("failed to scan %s: %w", root, err))
	}
	if len(scan.images) == 0 {
		p.logf("  no webp files found")
		return failed(item, fmt.Errorf("%s: %w", root, models.ErrNoImagesFound))
	}

	p.logScan(scan)
	p.logf("  output folder: %s", outRoot)

	type dirTask struct {
		models.ConversionTask
		rel string
	}

	tasks := make([]dirTask, 0, len(scan.images))
	for _, src := range scan.images {
		rel, err := filepath.Rel(root, src)
		if err != nil {
			return failed(item, fmt.Errorf("failed to derive relative path: %w", err))
		}
		tasks = append(tasks, dirTask{
			ConversionTask: models.ConversionTask{
				Source:      src,
				Destination: filepath.Join(outRoot, converter.JPEGPath(rel)),
			},
			rel: rel,
		})
	}

	res := models.ItemResult{Item: item, Output: outRoot}
	dirs := newDirTracker()
	for _, task := range tasks {
		err := dirs.mkdirAll(filepath.Dir(task.Destination))
		if err == nil {
			err = converter.ConvertFile(task.Source, task.Destination)
		}
		if err != nil {
			res.Failed++
			p.logger.Warn("image conversion failed", "path", task.Source, "error", err)
			p.logf("    %s failed: %v", task.rel, err)
			continue
		}

		res.Converted++
		p.logf("    %s -> %s", task.rel, converter.JPEGPath(task.rel))
	}

	// Drop mirrored directories left empty by failed images
	dirs.pruneEmpty()
	if res.Converted == 0 {
		res.Output = ""
	}

	res.Outcome = containerOutcome(res.Converted, res.Failed)
	if res.Converted > 0 {
		p.logf("  directory done: %d converted, %d failed", res.Converted, res.Failed)
	}
	return res
}

// dirTracker remembers the directories it created so empty ones can be
// removed again without touching directories that already existed.
type dirTracker struct {
	created []string
}

func newDirTracker() *dirTracker {
	return &dirTracker{}
}

func (d *dirTracker) mkdirAll(dir string) error {
	var missing []string
	for p := filepath.Clean(dir); ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		missing = append(missing, p)
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	d.created = append(d.created, missing...)
	return nil
}

// pruneEmpty removes created directories that are still empty, deepest first
func (d *dirTracker) pruneEmpty() {
	sort.Slice(d.created, func(i, j int) bool {
		return len(d.created[i]) > len(d.created[j])
	})
	for _, dir := range d.created {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		_ = os.Remove(dir)
	}
}

// treeScan lists the files found under a root, in lexical order
type treeScan struct {
	images  []string
	jpegs   int
	pngs    int
	entries int
}

func scanTree(root string) (treeScan, error) {
	var scan treeScan

	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			scan.entries++

			switch strings.ToLower(filepath.Ext(path)) {
			case ".webp":
				scan.images = append(scan.images, path)
			case ".jpg", ".jpeg":
				scan.jpegs++
			case ".png":
				scan.pngs++
			}
			return nil
		},
	})

	return scan, err
}

func (p *Processor) logScan(scan treeScan) {
	p.logf("  found %d webp files", len(scan.images))
	if scan.jpegs > 0 {
		p.logf("  %d jpg files skipped", scan.jpegs)
	}
	if scan.pngs > 0 {
		p.logf("  %d png files skipped", scan.pngs)
	}
}

// containerOutcome applies the rule that a container succeeds when at least
// one of its images converted.
func containerOutcome(converted, failedCount int) models.Outcome {
	switch {
	case converted == 0:
		return models.Outcome{
			Status: models.OutcomeFailure,
			Reason: fmt.Sprintf("all %d images failed", failedCount),
		}
	case failedCount > 0:
		return models.Outcome{
			Status: models.OutcomePartialSuccess,
			Reason: fmt.Sprintf("%d converted, %d failed", converted, failedCount),
		}
	default:
		return models.Outcome{Status: models.OutcomeSuccess}
	}
}

func failed(item models.InputItem, err error) models.ItemResult {
	return models.ItemResult{
		Item:    item,
		Outcome: models.Outcome{Status: models.OutcomeFailure, Reason: err.Error(), Err: err},
	}
}
