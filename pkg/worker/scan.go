package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// expectedMimeTypes lists the content types accepted for extensions that can be
// sniffed reliably. Other whitelisted extensions are taken at face value.
var expectedMimeTypes = map[string][]string{
	".epub": {"application/epub+zip"},
	".pdf":  {"application/pdf"},
}

// Scan returns the files under root (or root itself when it is a file) whose
// extension is in extensions, sorted by path. Files whose content contradicts a
// pdf or epub extension are skipped with a warning. Directories listed in skip are
// not descended into.
func Scan(ctx context.Context, root string, extensions []string, skip ...string) ([]string, error) {
	log := logger.FromContext(ctx)

	allowed := ExtensionSet(extensions)
	skipped := make(map[string]struct{}, len(skip))
	for _, dir := range skip {
		if abs, err := filepath.Abs(dir); err == nil {
			skipped[abs] = struct{}{}
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		if !Accept(ctx, root, allowed) {
			return []string{}, nil
		}
		return []string{root}, nil
	}

	files := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		if d.IsDir() {
			if abs, err := filepath.Abs(path); err == nil {
				if _, ok := skipped[abs]; ok {
					log.Debug("skipping directory", logger.Data{"path": path})
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if Accept(ctx, path, allowed) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Accept reports whether path has an allowed extension and, for sniffable types,
// content that matches it.
func Accept(ctx context.Context, path string, allowed map[string]struct{}) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := allowed[ext]; !ok {
		return false
	}

	expected, ok := expectedMimeTypes[ext]
	if !ok {
		return true
	}

	log := logger.FromContext(ctx)
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		log.Warn("can't detect the mime type of a file with a valid extension", logger.Data{"path": path, "err": err.Error()})
		return false
	}
	for _, e := range expected {
		if mtype.Is(e) {
			return true
		}
	}
	// Files can have any extension, so the content has the last word.
	log.Warn("mime type is not expected for extension", logger.Data{"path": path, "mimetype": mtype.String()})
	return false
}

// ExtensionSet builds the lookup used by Accept.
func ExtensionSet(extensions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}
