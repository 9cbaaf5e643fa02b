package machine

import (
	"regexp"
	"strings"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
)

const (
	// QueuePullMarker pulls the next queued statement into a running script.
	QueuePullMarker = "@next"
	labelPrefix     = ":"
	commentPrefix   = "#"
)

// bodySeparators splits script bodies into lines: real newlines, the two
// character sequence \n and semicolons.
var bodySeparators = regexp.MustCompile(`\r?\n|\\n|;`)

// frame is the state of one running script. The body is never modified,
// branch targets and pulled statements go through injected.
type frame struct {
	name     string
	body     []string
	ptr      int
	returns  []int
	injected []string
}

func newFrame(name, content string) *frame {
	return &frame{name: name, body: bodySeparators.Split(content, -1)}
}

// next returns the next line to run, injected lines first.
func (f *frame) next() (string, bool) {
	if len(f.injected) > 0 {
		line := f.injected[0]
		f.injected = f.injected[1:]
		return line, true
	}
	if f.ptr < len(f.body) {
		line := f.body[f.ptr]
		f.ptr++
		return line, true
	}
	return "", false
}

// label returns the index of the ":name" line.
func (f *frame) label(name string) (int, bool) {
	target := labelPrefix + strings.TrimPrefix(name, labelPrefix)
	for i, line := range f.body {
		if strings.TrimSpace(line) == target {
			return i, true
		}
	}
	return 0, false
}

// injectNext makes line the next statement to run: in the running script
// if there is one, otherwise at the front of the queue.
func (m *Machine) injectNext(line string) {
	if len(m.frames) > 0 {
		top := m.frames[len(m.frames)-1]
		top.injected = append([]string{line}, top.injected...)
		return
	}
	m.queue = append([]string{line}, m.queue...)
}

// RunScript runs the file at path. The random device returns a random
// float and the null device does nothing.
func (m *Machine) RunScript(path string) (expr.Value, Signal) {
	file, err := m.fs.ReadFile(path, m.Cwd())
	if err != nil {
		m.Errorf("File %s not found.", path)
		return nil, SignalFor(err)
	}

	switch file.Device() {
	case vfs.DeviceRandom:
		return expr.Float(m.rand.Float64()), OK
	case vfs.DeviceNull:
		return nil, OK
	}

	if len(m.frames) >= maxScriptDepth {
		m.Errorf("Scripts nested too deeply.")
		return nil, SigScriptControl
	}

	f := newFrame(path, file.Content)
	m.frames = append(m.frames, f)
	m.StartProcess(path)
	defer func() {
		m.frames = m.frames[:len(m.frames)-1]
		m.StopProcess(path)
	}()

	return nil, m.runFrame(f)
}

func (m *Machine) runFrame(f *frame) Signal {
	for steps := 1; ; steps++ {
		raw, ok := f.next()
		if !ok {
			return OK
		}
		if steps > m.maxScriptSteps {
			m.Errorf("Script %s ran for more than %d steps.", f.name, m.maxScriptSteps)
			return SigScriptControl
		}

		line := strings.TrimSpace(raw)
		verb, args := SplitVerb(line)
		switch {
		case line == "", strings.HasPrefix(line, commentPrefix), strings.HasPrefix(line, labelPrefix):
			continue

		case line == QueuePullMarker:
			if pulled, ok := m.popQueue(); ok {
				f.injected = append([]string{pulled}, f.injected...)
			}

		case verb == "goto":
			target, ok := f.label(args)
			if args == "" || !ok {
				m.Errorf("Label %s not found.", args)
				return SigScriptControl
			}
			f.returns = append(f.returns, f.ptr)
			f.ptr = target

		case verb == "return" && args == "":
			if len(f.returns) == 0 {
				m.Errorf("Return outside of a subroutine.")
				return SigScriptControl
			}
			f.ptr = f.returns[len(f.returns)-1]
			f.returns = f.returns[:len(f.returns)-1]

		default:
			if sig := m.runStatement(line); sig != OK {
				return sig
			}
		}
	}
}
