// Package scan enumerates the local build tree that a deployment
// mirrors to the remote server.
package scan

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bamsammich/siteup/internal/filter"
)

// Entry is one regular file found under the scan root, identified by
// its forward-slash path relative to the root.
type Entry struct {
	Rel  string
	Size int64
}

// Tree recursively walks root and returns every non-excluded regular
// file. Exclusions are tested against the relative path of each entry
// before descending, so an excluded directory prunes the walk and
// nothing beneath it is ever read. Any unreadable directory, including
// the root itself, fails the scan.
func Tree(fsys afero.Fs, root string, excl *filter.Set) ([]Entry, error) {
	info, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	var entries []Entry
	if err := walkDir(fsys, root, "", excl, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func walkDir(fsys afero.Fs, root, rel string, excl *filter.Set, out *[]Entry) error {
	dir := root
	if rel != "" {
		dir = filepath.Join(root, filepath.FromSlash(rel))
	}

	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, info := range infos {
		childRel := path.Join(rel, info.Name())
		if excl.Excluded(childRel) {
			continue
		}
		switch {
		case info.IsDir():
			if err := walkDir(fsys, root, childRel, excl, out); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			*out = append(*out, Entry{Rel: childRel, Size: info.Size()})
		}
	}
	return nil
}
