package vfs

import (
	"io/fs"
)

// parentDir resolves the directory that holds path and returns it with the
// base name.
func (f *FS) parentDir(op, path, cwd string) (*Dir, string, error) {
	parentPath, name := SplitParent(path)
	node, err := f.Resolve(parentPath, cwd)
	if err != nil {
		return nil, "", err
	}
	dir, ok := node.(*Dir)
	if !ok {
		return nil, "", &fs.PathError{Op: op, Path: parentPath, Err: ErrNotADirectory}
	}
	return dir, name, nil
}

// ReadFile returns the file at path.
func (f *FS) ReadFile(path, cwd string) (*File, error) {
	dir, name, err := f.parentDir("read", path, cwd)
	if err != nil {
		return nil, err
	}
	child, ok := dir.Child(name)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: ErrFileNotFound}
	}
	file, ok := child.(*File)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: ErrIsDirectory}
	}
	return file, nil
}

// Mkdir creates a new empty directory at path.
func (f *FS) Mkdir(path, cwd string) error {
	dir, name, err := f.parentDir("mkdir", path, cwd)
	if err != nil {
		return err
	}
	if name == "" || name == "." || name == ".." {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrInvalid}
	}
	if _, ok := dir.Child(name); ok {
		return &fs.PathError{Op: "mkdir", Path: path, Err: ErrExist}
	}
	dir.Put(name, NewDir())
	return nil
}

// MkdirAll creates path and any missing parents, existing directories are
// left untouched.
func (f *FS) MkdirAll(path, cwd string) (*Dir, error) {
	var dir *Dir
	if len(path) > 0 && path[0] == '/' {
		dir = f.root
	} else {
		var err error
		dir, _, err = f.ResolveDir(cwd, Separator)
		if err != nil {
			return nil, err
		}
	}

	for _, segment := range splitSegments(path) {
		if segment == ".." {
			return nil, &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrInvalid}
		}
		child, ok := dir.Child(segment)
		if !ok {
			child = NewDir()
			dir.Put(segment, child)
		}
		next, ok := child.(*Dir)
		if !ok {
			return nil, &fs.PathError{Op: "mkdir", Path: path, Err: ErrNotADirectory}
		}
		dir = next
	}
	return dir, nil
}

// Touch creates an empty file at path if nothing exists there yet.
func (f *FS) Touch(path, cwd string) error {
	dir, name, err := f.parentDir("touch", path, cwd)
	if err != nil {
		return err
	}
	if name == "" {
		return &fs.PathError{Op: "touch", Path: path, Err: fs.ErrInvalid}
	}
	if _, ok := dir.Child(name); !ok {
		dir.Put(name, NewFile(""))
	}
	return nil
}

// Write stores content in the file at path, creating it if it doesn't exist.
//
// Device files swallow the write. When appending to a file with existing
// content the new content is separated by a newline.
func (f *FS) Write(path, cwd, content string, appendContent bool) error {
	dir, name, err := f.parentDir("write", path, cwd)
	if err != nil {
		return err
	}
	if name == "" || name == "." || name == ".." {
		return &fs.PathError{Op: "write", Path: path, Err: ErrIsDirectory}
	}

	child, ok := dir.Child(name)
	if !ok {
		dir.Put(name, NewFile(content))
		return nil
	}

	file, ok := child.(*File)
	if !ok {
		return &fs.PathError{Op: "write", Path: path, Err: ErrIsDirectory}
	}
	if file.Device() != DeviceNone {
		return nil
	}

	switch {
	case !appendContent:
		file.Content = content
	case file.Content == "":
		file.Content = content
	default:
		file.Content += "\n" + content
	}
	return nil
}

// Remove deletes the file at path.
func (f *FS) Remove(path, cwd string) error {
	dir, name, err := f.parentDir("remove", path, cwd)
	if err != nil {
		return err
	}
	child, ok := dir.Child(name)
	if !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: ErrFileNotFound}
	}
	if _, ok := child.(*Dir); ok {
		return &fs.PathError{Op: "remove", Path: path, Err: ErrIsDirectory}
	}
	dir.Delete(name)
	return nil
}

// RemoveDir deletes the empty directory at path.
func (f *FS) RemoveDir(path, cwd string) error {
	node, abs, err := f.ResolvePath(path, cwd)
	if err != nil {
		return err
	}
	dir, ok := node.(*Dir)
	switch {
	case !ok:
		return &fs.PathError{Op: "rmdir", Path: path, Err: ErrNotADirectory}
	case abs == Separator:
		return &fs.PathError{Op: "rmdir", Path: path, Err: fs.ErrPermission}
	case !dir.IsEmpty():
		return &fs.PathError{Op: "rmdir", Path: path, Err: ErrNotEmpty}
	}

	parentPath, name := SplitParent(abs)
	parent, _, err := f.ResolveDir(parentPath, Separator)
	if err != nil {
		return err
	}
	parent.Delete(name)
	return nil
}
