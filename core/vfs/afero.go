package vfs

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// Import copies the tree under root in afs into a new directory.
//
// Files larger than maxSize bytes (when maxSize > 0) and files that aren't
// valid UTF-8 are imported empty, only the structure matters for those.
// Symlinks and other special files are skipped.
func Import(afs afero.Fs, root string, maxSize int64) (*Dir, error) {
	out := NewDir()
	root = path.Clean("/" + root)

	err := afero.Walk(afs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path.Clean("/"+p), root)
		if rel == "" || rel == "/" {
			return nil
		}

		parentPath, name := SplitParent(path.Clean("/" + rel))
		parent, err := New(out).MkdirAll(parentPath, Separator)
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			if _, ok := parent.Child(name); !ok {
				parent.Put(name, NewDir())
			}
		case info.Mode().IsRegular():
			content := ""
			if maxSize <= 0 || info.Size() <= maxSize {
				data, err := afero.ReadFile(afs, p)
				if err != nil {
					return err
				}
				if utf8.Valid(data) {
					content = string(data)
				}
			}
			parent.Put(name, NewFile(content))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't import %q: %w", root, err)
	}
	return out, nil
}

// Export writes dir into afs under root. Device files are written with their
// sentinel content so the tree can be imported again.
func Export(dir *Dir, afs afero.Fs, root string) error {
	if err := afs.MkdirAll(root, 0755); err != nil {
		return err
	}
	for _, name := range dir.Names() {
		target := path.Join(root, name)
		switch child := dir.Children[name].(type) {
		case *Dir:
			if err := Export(child, afs, target); err != nil {
				return err
			}
		case *File:
			if err := afero.WriteFile(afs, target, []byte(child.Content), fs.FileMode(0644)); err != nil {
				return err
			}
		}
	}
	return nil
}
