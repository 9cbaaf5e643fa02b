package vfs

import (
	"io/fs"
	"strings"
)

// Separator splits path segments.
const Separator = "/"

// FS is a filesystem tree with a single owned root.
type FS struct {
	root *Dir
}

// New wraps the given root in an FS. A nil root creates an empty tree.
func New(root *Dir) *FS {
	if root == nil {
		root = NewDir()
	}
	return &FS{root: root}
}

// Root returns the root directory.
func (f *FS) Root() *Dir {
	return f.root
}

// Resolve looks up path relative to the absolute directory cwd.
func (f *FS) Resolve(path, cwd string) (Node, error) {
	node, _, err := f.ResolvePath(path, cwd)
	return node, err
}

// ResolvePath looks up path relative to the absolute directory cwd and
// returns the node along with its canonical absolute path.
//
// Segments are consumed left to right, ".." always re-walks the remaining
// stack from the root so no stale directory handle is ever held.
func (f *FS) ResolvePath(path, cwd string) (Node, string, error) {
	var stack []string
	if !strings.HasPrefix(path, Separator) {
		stack = splitSegments(cwd)
	}

	var node Node = f.root
	if len(stack) > 0 {
		var err error
		node, err = f.walk(stack)
		if err != nil {
			return nil, "", &fs.PathError{Op: "resolve", Path: cwd, Err: err}
		}
	}

	for _, segment := range strings.Split(path, Separator) {
		switch segment {
		case "", ".":
			if _, ok := node.(*Dir); !ok && segment == "." {
				return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: ErrNotADirectory}
			}
			continue

		case "..":
			if _, ok := node.(*Dir); !ok {
				return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: ErrNotADirectory}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			parent, err := f.walk(stack)
			if err != nil {
				return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: err}
			}
			node = parent

		default:
			dir, ok := node.(*Dir)
			if !ok {
				return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: ErrNotADirectory}
			}
			child, ok := dir.Child(segment)
			if !ok {
				return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: ErrPathNotFound}
			}
			stack = append(stack, segment)
			node = child
		}
	}

	return node, Separator + strings.Join(stack, Separator), nil
}

// ResolveDir is like ResolvePath but requires the result to be a directory.
func (f *FS) ResolveDir(path, cwd string) (*Dir, string, error) {
	node, abs, err := f.ResolvePath(path, cwd)
	if err != nil {
		return nil, "", err
	}
	dir, ok := node.(*Dir)
	if !ok {
		return nil, "", &fs.PathError{Op: "resolve", Path: path, Err: ErrNotADirectory}
	}
	return dir, abs, nil
}

// walk descends from the root through already canonical segments.
func (f *FS) walk(segments []string) (Node, error) {
	var node Node = f.root
	for _, segment := range segments {
		dir, ok := node.(*Dir)
		if !ok {
			return nil, ErrNotADirectory
		}
		child, ok := dir.Child(segment)
		if !ok {
			return nil, ErrPathNotFound
		}
		node = child
	}
	return node, nil
}

func splitSegments(path string) []string {
	var out []string
	for _, segment := range strings.Split(path, Separator) {
		if segment == "" || segment == "." {
			continue
		}
		out = append(out, segment)
	}
	return out
}

// SplitParent splits a path into its parent path and base name.
// The parent is "" for bare names so it resolves to the working directory,
// and "/" for names directly under the root.
func SplitParent(path string) (parent, name string) {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return "", path
	}
	if idx == 0 {
		return Separator, path[1:]
	}
	return path[:idx], path[idx+1:]
}
