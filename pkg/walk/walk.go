// Package walk enumerates every file beneath a directory.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// ErrNotDirectory is returned when the walk root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

var errStop = errors.New("walk stopped")

// Walker walks a single root.
type Walker struct {
	Root string
}

// New returns a Walker for root, or an *fs.PathError if root is missing or not a directory.
func New(root string) (*Walker, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &fs.PathError{Op: "walk", Path: root, Err: ErrNotDirectory}
	}
	return &Walker{Root: root}, nil
}

// Paths yields the path of every non-directory entry under the root, in
// directory order. Symlinks to directories are neither yielded nor followed.
// Each range over the result starts a fresh walk.
//
// Errors reading part of the tree are yielded with the offending path and the
// walk carries on with the next entry.
func (w *Walker) Paths() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false

		err := godirwalk.Walk(w.Root, &godirwalk.Options{
			Unsorted: true,
			Callback: func(path string, de *godirwalk.Dirent) error {
				// a broken symlink resolves with an error and is yielded as a file
				if isDir, err := de.IsDirOrSymlinkToDir(); err == nil && isDir {
					return nil
				}
				if !yield(path, nil) {
					stopped = true
					return errStop
				}
				return nil
			},
			ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
				if stopped || errors.Is(err, errStop) {
					return godirwalk.Halt
				}
				klog.Warningf("walk %s: %v", path, err)
				if !yield(path, err) {
					stopped = true
					return godirwalk.Halt
				}
				return godirwalk.SkipNode
			},
		})

		if err != nil && !stopped && !errors.Is(err, errStop) {
			yield(w.Root, fmt.Errorf("walk %s: %w", w.Root, err))
		}
	}
}

// Slice returns a sequence over a fixed list of paths.
func Slice(paths ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}
