package vfs

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree(t *testing.T) *FS {
	t.Helper()
	root, err := LoadDocument([]byte(`
a:
  b.txt: hello
  c:
    d.txt: deep
dev:
  "null": "%SPECIAL_NULL_FILE%"
  random: "%SPECIAL_RANDOM_FILE%"
top.txt: top
empty: {}
`))
	require.NoError(t, err)
	return New(root)
}

func TestResolvePath(t *testing.T) {
	cases := map[string]struct {
		path    string
		cwd     string
		wantAbs string
		wantErr error
	}{
		"root":                 {path: "/", cwd: "/a", wantAbs: "/"},
		"empty is cwd":         {path: "", cwd: "/a/c", wantAbs: "/a/c"},
		"dot is cwd":           {path: ".", cwd: "/a", wantAbs: "/a"},
		"relative":             {path: "c", cwd: "/a", wantAbs: "/a/c"},
		"absolute":             {path: "/a/c/d.txt", cwd: "/empty", wantAbs: "/a/c/d.txt"},
		"dotdot":               {path: "..", cwd: "/a/c", wantAbs: "/a"},
		"dotdot past root":     {path: "../../../..", cwd: "/a", wantAbs: "/"},
		"dotdot in middle":     {path: "/a/c/../b.txt", cwd: "/", wantAbs: "/a/b.txt"},
		"repeated separators":  {path: "//a///c/", cwd: "/", wantAbs: "/a/c"},
		"missing child":        {path: "a/missing", cwd: "/", wantErr: ErrPathNotFound},
		"missing after dotdot": {path: "../nope", cwd: "/a", wantErr: ErrPathNotFound},
		"file used as dir":     {path: "/top.txt/x", cwd: "/", wantErr: ErrNotADirectory},
		"dotdot from file":     {path: "/a/b.txt/..", cwd: "/", wantErr: ErrNotADirectory},
		"stale cwd":            {path: "x", cwd: "/gone", wantErr: ErrPathNotFound},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := testTree(t)
			_, abs, err := f.ResolvePath(tc.path, tc.cwd)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got error %v, want %v", err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAbs, abs)
		})
	}
}

func TestResolve_parentRoundTrip(t *testing.T) {
	f := testTree(t)
	paths := []string{"/a", "/a/c", "/empty", "/dev", "/a/c/d.txt", "/top.txt"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			parentPath, _ := SplitParent(p)
			wantParent, err := f.Resolve(parentPath, "/")
			require.NoError(t, err)

			node, err := f.Resolve(p, "/")
			require.NoError(t, err)

			if _, isDir := node.(*Dir); !isDir {
				// Files can't be ascended from.
				_, err := f.Resolve(p+"/..", "/")
				assert.True(t, errors.Is(err, ErrNotADirectory))
				return
			}

			gotParent, err := f.Resolve(p+"/..", "/")
			require.NoError(t, err)
			assert.Same(t, wantParent, gotParent)
		})
	}
}

func TestSplitParent(t *testing.T) {
	cases := []struct {
		in         string
		wantParent string
		wantName   string
	}{
		{"file.txt", "", "file.txt"},
		{"/file.txt", "/", "file.txt"},
		{"a/b/file.txt", "a/b", "file.txt"},
		{"/a/", "/a", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			parent, name := SplitParent(tc.in)
			assert.Equal(t, tc.wantParent, parent)
			assert.Equal(t, tc.wantName, name)
		})
	}
}

func TestWrite(t *testing.T) {
	cases := map[string]struct {
		path    string
		content string
		append  bool
		wantErr error
		want    map[string]interface{}
	}{
		"overwrite existing": {
			path: "/top.txt", content: "new",
			want: map[string]interface{}{"top.txt": "new"},
		},
		"append existing": {
			path: "/top.txt", content: "more", append: true,
			want: map[string]interface{}{"top.txt": "top\nmore"},
		},
		"create missing": {
			path: "/a/new.txt", content: "x",
			want: map[string]interface{}{"top.txt": "top"},
		},
		"null device": {
			path: "/dev/null", content: "ignored", append: true,
			want: map[string]interface{}{"top.txt": "top"},
		},
		"random device": {
			path: "/dev/random", content: "ignored",
			want: map[string]interface{}{"top.txt": "top"},
		},
		"target is directory": {path: "/a/c", content: "x", wantErr: ErrIsDirectory},
		"parent is file":      {path: "/top.txt/x", content: "x", wantErr: ErrNotADirectory},
		"parent missing":      {path: "/nope/x", content: "x", wantErr: ErrPathNotFound},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			f := testTree(t)
			before := ToMap(f.Root().Clone())

			err := f.Write(tc.path, "/", tc.content, tc.append)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr), "got error %v, want %v", err, tc.wantErr)
				assert.Empty(t, cmp.Diff(before, ToMap(f.Root())), "tree changed on error")
				return
			}
			require.NoError(t, err)

			after := ToMap(f.Root())
			assert.Equal(t, tc.want["top.txt"], after["top.txt"])
			if tn == "create missing" {
				file, err := f.ReadFile("/a/new.txt", "/")
				require.NoError(t, err)
				assert.Equal(t, "x", file.Content)
			}
			if tn == "null device" || tn == "random device" {
				assert.Empty(t, cmp.Diff(before, after))
			}
		})
	}
}

func TestWrite_appendToEmpty(t *testing.T) {
	f := New(nil)
	require.NoError(t, f.Touch("log", "/"))
	require.NoError(t, f.Write("log", "/", "first", true))
	require.NoError(t, f.Write("log", "/", "second", true))

	file, err := f.ReadFile("/log", "/")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", file.Content)
}

func TestMkdirRemove(t *testing.T) {
	f := testTree(t)

	require.NoError(t, f.Mkdir("new", "/a"))
	assert.True(t, errors.Is(f.Mkdir("new", "/a"), ErrExist))

	err := f.RemoveDir("/a", "/")
	assert.True(t, errors.Is(err, ErrNotEmpty))

	require.NoError(t, f.RemoveDir("../new", "/a/c"))
	_, err = f.Resolve("/a/new", "/")
	assert.True(t, errors.Is(err, ErrPathNotFound))

	assert.True(t, errors.Is(f.RemoveDir("/top.txt", "/"), ErrNotADirectory))

	require.NoError(t, f.Remove("b.txt", "/a"))
	assert.True(t, errors.Is(f.Remove("b.txt", "/a"), ErrFileNotFound))
	assert.True(t, errors.Is(f.Remove("b.txt", "/a"), ErrPathNotFound))
	assert.True(t, errors.Is(f.Remove("/a/c", "/"), ErrIsDirectory))
}

func TestMkdirAll(t *testing.T) {
	f := testTree(t)

	dir, err := f.MkdirAll("x/y/z", "/a")
	require.NoError(t, err)
	got, err := f.Resolve("/a/x/y/z", "/")
	require.NoError(t, err)
	assert.Same(t, dir, got)

	_, err = f.MkdirAll("/top.txt/y", "/")
	assert.True(t, errors.Is(err, ErrNotADirectory))
}

func TestClone(t *testing.T) {
	f := testTree(t)
	clone := f.Root().Clone()

	assert.Empty(t, cmp.Diff(ToMap(f.Root()), ToMap(clone)))

	require.NoError(t, f.Write("/top.txt", "/", "changed", false))
	assert.NotEmpty(t, cmp.Diff(ToMap(f.Root()), ToMap(clone)))
}

func TestFileDevice(t *testing.T) {
	assert.Equal(t, DeviceNull, NewFile(NullDevice).Device())
	assert.Equal(t, DeviceRandom, NewFile(RandomDevice).Device())
	assert.Equal(t, DeviceNone, NewFile("text").Device())
}
