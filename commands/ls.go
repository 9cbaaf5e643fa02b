package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	fcolor "github.com/fatih/color"
	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/vfs"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Ls lists directories. Without operands the working directory is listed
// in full, listings of named directories hide dot files unless -a is given.
func Ls(m *machine.Machine, args string) (expr.Value, machine.Signal) {
	cmd := &SimpleVerb{
		Use:   "ls [OPTION]... [DIRECTORY]...",
		Short: "List the contents of directories.",
	}

	opts := cmd.Flags()
	listAll := opts.Bool('a', "don't ignore entries starting with .")
	longListing := opts.Bool('l', "use a long listing format")
	humanSize := opts.Bool('s', "print human readable sizes in long listings")
	cmd.ShowHelp = opts.BoolLong("help", '?', "show help and exit")

	var color ColorPrinter
	color.Init(opts, m)

	return cmd.Run(m, args, func() (expr.Value, machine.Signal) {
		directoriesToList := cmd.Operands()
		showHidden := *listAll
		if len(directoriesToList) == 0 {
			directoriesToList = []string{"."}
			showHidden = true
		}
		showDirectoryNames := len(directoriesToList) > 1

		sizeFmt := func(size int64) string {
			return fmt.Sprintf("%d", size)
		}
		if *humanSize {
			sizeFmt = BytesToHuman
		}

		var out []string
		for _, directory := range directoriesToList {
			node, err := m.FS().Resolve(directory, m.Cwd())
			if err != nil {
				m.Errorf("Directory %s does not exist.", directory)
				return nil, machine.SignalFor(err)
			}

			entries := listEntries(node, directory, showHidden)
			if showDirectoryNames {
				out = append(out, directory+":")
			}

			if *longListing {
				var buf bytes.Buffer
				tw := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n",
						e.kind(),
						sizeFmt(e.size()),
						color.Sprintf(e.color(), "%s", e.name))
				}
				tw.Flush()
				out = append(out, strings.TrimRight(buf.String(), "\n"))
				continue
			}

			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = color.Sprintf(e.color(), "%s", e.name)
			}
			out = append(out, strings.Join(names, " "))
		}

		return expr.Str(strings.Join(out, "\n")), machine.OK
	})
}

type lsEntry struct {
	name string
	node vfs.Node
}

func (e lsEntry) kind() string {
	if _, ok := e.node.(*vfs.Dir); ok {
		return "d"
	}
	return "-"
}

// size is the content length of files and the child count of directories.
func (e lsEntry) size() int64 {
	switch n := e.node.(type) {
	case *vfs.Dir:
		return int64(len(n.Children))
	case *vfs.File:
		return int64(len(n.Content))
	}
	return 0
}

// color picks the entry color the way dircolors does.
func (e lsEntry) color() *fcolor.Color {
	switch n := e.node.(type) {
	case *vfs.Dir:
		return ColorBoldBlue
	case *vfs.File:
		if n.Device() != vfs.DeviceNone {
			return ColorBoldCyan
		}
		if strings.HasSuffix(e.name, ".sh") {
			return ColorBoldGreen
		}
	}
	return lsDefaultColor
}

var lsDefaultColor = fcolor.New(fcolor.FgHiWhite)

var lsCollator = collate.New(language.English)

// listEntries returns the entries of a directory in collation order, or the
// node itself if it's a file.
func listEntries(node vfs.Node, operand string, showHidden bool) []lsEntry {
	dir, ok := node.(*vfs.Dir)
	if !ok {
		_, name := vfs.SplitParent(operand)
		return []lsEntry{{name: name, node: node}}
	}

	var names []string
	for _, name := range dir.Names() {
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	lsCollator.SortStrings(names)

	entries := make([]lsEntry, len(names))
	for i, name := range names {
		child, _ := dir.Child(name)
		entries[i] = lsEntry{name: name, node: child}
	}
	return entries
}

var _ machine.VerbFunc = Ls

func init() {
	addVerb("ls", Ls)
}
