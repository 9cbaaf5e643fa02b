// Package vfs holds the machine's in-memory filesystem tree and the path
// resolver used to look nodes up in it.
package vfs

import (
	"errors"
	"sort"
)

// Sentinel file contents that turn a regular file into a device.
const (
	NullDevice   = "%SPECIAL_NULL_FILE%"
	RandomDevice = "%SPECIAL_RANDOM_FILE%"
)

var (
	// ErrPathNotFound is returned when a path segment doesn't exist.
	ErrPathNotFound = errors.New("no such file or directory")
	// ErrFileNotFound is a more specific ErrPathNotFound for the final
	// component of a file operation.
	ErrFileNotFound = &wrappedError{"file not found", ErrPathNotFound}
	// ErrNotADirectory is returned when a file is used as a directory.
	ErrNotADirectory = errors.New("not a directory")
	// ErrIsDirectory is returned when a directory is used as a file.
	ErrIsDirectory = errors.New("is a directory")
	// ErrExist is returned when creating a node that already exists.
	ErrExist = errors.New("file exists")
	// ErrNotEmpty is returned when removing a directory with children.
	ErrNotEmpty = errors.New("directory not empty")
)

type wrappedError struct {
	msg     string
	wrapped error
}

func (w *wrappedError) Error() string { return w.msg }
func (w *wrappedError) Unwrap() error { return w.wrapped }

// Node is either a *Dir or a *File.
type Node interface {
	isNode()
}

// Dir is a directory node, children are keyed by their name.
type Dir struct {
	Children map[string]Node
}

var _ Node = (*Dir)(nil)

func (*Dir) isNode() {}

// NewDir creates an empty directory.
func NewDir() *Dir {
	return &Dir{Children: make(map[string]Node)}
}

// Child looks up a direct child by name.
func (d *Dir) Child(name string) (Node, bool) {
	child, ok := d.Children[name]
	return child, ok
}

// Put adds or replaces a child.
func (d *Dir) Put(name string, node Node) {
	if d.Children == nil {
		d.Children = make(map[string]Node)
	}
	d.Children[name] = node
}

// Delete removes a child, it's a no-op if the child doesn't exist.
func (d *Dir) Delete(name string) {
	delete(d.Children, name)
}

// Names returns the sorted names of the children.
func (d *Dir) Names() []string {
	var names []string
	for name := range d.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty returns true if the directory has no children.
func (d *Dir) IsEmpty() bool {
	return len(d.Children) == 0
}

// Device is the kind of special file a File represents.
type Device int

const (
	// DeviceNone is a regular file.
	DeviceNone Device = iota
	// DeviceNull discards writes and reads as empty.
	DeviceNull
	// DeviceRandom produces a random value on every read.
	DeviceRandom
)

// File is a regular file or device.
type File struct {
	Content string
}

var _ Node = (*File)(nil)

func (*File) isNode() {}

// NewFile creates a new file with the given content.
func NewFile(content string) *File {
	return &File{Content: content}
}

// Device returns the special device the file represents, if any.
func (f *File) Device() Device {
	switch f.Content {
	case NullDevice:
		return DeviceNull
	case RandomDevice:
		return DeviceRandom
	default:
		return DeviceNone
	}
}

// Clone makes a deep copy of the tree rooted at d.
func (d *Dir) Clone() *Dir {
	out := NewDir()
	for name, child := range d.Children {
		switch child := child.(type) {
		case *Dir:
			out.Put(name, child.Clone())
		case *File:
			out.Put(name, NewFile(child.Content))
		}
	}
	return out
}
