package fileutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const maxCollisions = 1000

// PlaceOptions describes where a book goes.
type PlaceOptions struct {
	OutputDir  string
	Categories []string
	Name       string
	// DryRun links the source into place instead of moving it.
	DryRun bool
}

// PlaceResult contains the results of placing a file.
type PlaceResult struct {
	OriginalPath  string
	NewPath       string
	Links         []string
	FolderCreated bool
	Moved         bool
}

// Place files src under the first category and links it from every other one. A
// name already taken by something else gets a " (n)" suffix, both for the primary
// copy and for the links. Names are claimed atomically so concurrent placements
// never overwrite each other.
func Place(src string, opts PlaceOptions) (*PlaceResult, error) {
	result := &PlaceResult{
		OriginalPath: src,
	}

	if len(opts.Categories) == 0 {
		return result, errors.New("no category to place the file in")
	}
	if opts.Name == "" {
		return result, errors.New("no name to place the file under")
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return result, errors.WithStack(err)
	}

	targetFolder := filepath.Join(opts.OutputDir, opts.Categories[0])
	if _, err := os.Stat(targetFolder); os.IsNotExist(err) {
		if err := os.MkdirAll(targetFolder, 0755); err != nil {
			return result, errors.WithStack(err)
		}
		result.FolderCreated = true
	}

	cleanup := func() {
		if result.FolderCreated {
			// Only removes the folder if nothing else landed in it.
			_ = os.Remove(targetFolder)
		}
	}

	primary := filepath.Join(targetFolder, opts.Name)
	if opts.DryRun {
		result.NewPath, err = claimUniquePath(primary, symlinkTo(src))
	} else {
		result.NewPath, err = claimUniquePath(primary, reserveFile)
		if err == nil {
			if err = moveFile(src, result.NewPath); err != nil {
				_ = os.Remove(result.NewPath)
				result.NewPath = ""
			}
		}
	}
	if err != nil {
		cleanup()
		return result, errors.WithStack(err)
	}
	result.Moved = !opts.DryRun

	absTarget, err := filepath.Abs(result.NewPath)
	if err != nil {
		return result, errors.WithStack(err)
	}

	seen := map[string]struct{}{opts.Categories[0]: {}}
	for _, category := range opts.Categories[1:] {
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}

		dir := filepath.Join(opts.OutputDir, category)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return result, errors.WithStack(err)
		}
		link, err := claimUniquePath(filepath.Join(dir, filepath.Base(result.NewPath)), symlinkTo(absTarget))
		if err != nil {
			return result, errors.WithStack(err)
		}
		result.Links = append(result.Links, link)
	}

	return result, nil
}

// reserveFile creates an empty placeholder at path, failing if anything is there.
func reserveFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// symlinkTo returns a creator for links to target. A link that already points at
// target counts as created.
func symlinkTo(target string) func(string) error {
	return func(path string) error {
		err := os.Symlink(target, path)
		if os.IsExist(err) {
			if existing, rerr := os.Readlink(path); rerr == nil && existing == target {
				return nil
			}
		}
		return err
	}
}

// moveFile safely moves a file from source to destination.
func moveFile(src, dst string) error {
	// Try a simple rename first (fastest, works if src and dst are on same filesystem)
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	// If rename failed, do a copy + delete
	err = copyFile(src, dst)
	if err != nil {
		return errors.WithStack(err)
	}

	// Remove the source file only after successful copy
	err = os.Remove(src)
	if err != nil {
		// If we can't remove the source, try to clean up the destination
		os.Remove(dst)
		return errors.WithStack(err)
	}

	return nil
}

// copyFile copies a file from source to destination.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return errors.WithStack(err)
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return errors.WithStack(err)
	}

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	err = destFile.Chmod(sourceInfo.Mode())
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// claimUniquePath calls create with path, then "name (1).ext", "name (2).ext" and so
// on while create reports that the name is taken. It returns the path that was
// created.
func claimUniquePath(path string, create func(string) error) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	nameWithoutExt := base[:len(base)-len(ext)]

	candidate := path
	for i := 1; i < maxCollisions; i++ {
		err := create(candidate)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", errors.WithStack(err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", nameWithoutExt, i, ext))
	}
	return "", errors.Errorf("no free name for %s after %d attempts", path, maxCollisions)
}
