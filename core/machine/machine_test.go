package machine

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/josephlewis42/dooros/core/expr"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVerbs are small stand-ins for the verbs in the commands package.
var testVerbs = map[string]Verb{
	"echo": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return expr.Str(args), OK
	}),
	"rawecho": &Command{
		NoSplit: true,
		Run: func(m *Machine, args string) (expr.Value, Signal) {
			return expr.Str(args), OK
		},
	},
	"cat": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		var out []string
		for _, name := range strings.Fields(args) {
			file, err := m.FS().ReadFile(name, m.Cwd())
			if err != nil {
				m.Errorf("File %s not found.", name)
				return nil, SignalFor(err)
			}
			out = append(out, file.Content)
		}
		return expr.Str(strings.Join(out, " ")), OK
	}),
	"cd": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		if err := m.Chdir(args); err != nil {
			return nil, SignalFor(err)
		}
		return nil, OK
	}),
	"pwd": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return expr.Str(m.Cwd()), OK
	}),
	"rmdir": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return nil, SignalFor(m.FS().RemoveDir(args, m.Cwd()))
	}),
	"num": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return expr.Int(len(args)), OK
	}),
	"fail": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return nil, SigUserNotFound
	}),
	"boom": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		panic("boom")
	}),
	"bye": VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
		return nil, SignalExit
	}),
	"rootonly": &Command{
		Requires: PermRoot,
		Run: func(m *Machine, args string) (expr.Value, Signal) {
			return expr.Str("privileged"), OK
		},
	},
}

type testMachine struct {
	*Machine
	console *bytes.Buffer
}

// newTestMachine creates a machine logged in as a sudo user.
func newTestMachine(t *testing.T, document string) *testMachine {
	t.Helper()
	root, err := vfs.LoadDocument([]byte(document))
	require.NoError(t, err)

	console := &bytes.Buffer{}
	m := New(root, Options{
		Stdout: console,
		Users: map[string]*User{
			"alice": {Password: "pw", Permission: PermSudo},
			"bob":   {Password: "pw", Permission: PermUser},
		},
		Rand: rand.New(rand.NewSource(1)),
	})
	for name, v := range testVerbs {
		m.InstallVerb(name, v)
	}
	require.NoError(t, m.Login("alice", "pw"))
	return &testMachine{Machine: m, console: console}
}

// run submits each line and returns the console output.
func (tm *testMachine) run(t *testing.T, lines ...string) string {
	t.Helper()
	tm.console.Reset()
	for _, line := range lines {
		tm.SubmitLine(line)
	}
	return tm.console.String()
}

func (tm *testMachine) file(t *testing.T, path string) string {
	t.Helper()
	file, err := tm.FS().ReadFile(path, "/")
	require.NoError(t, err)
	return file.Content
}

const exampleTree = `
a:
  b.txt: hello
dev:
  "null": "%SPECIAL_NULL_FILE%"
  random: "%SPECIAL_RANDOM_FILE%"
`

func TestSubmitLine_example(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "hello\n", tm.run(t, "cd a", "cat b.txt"))
	assert.Equal(t, "hello\n", tm.run(t, "cat b.txt > /a/c.txt", "cat c.txt"))
	assert.Equal(t, "hello", tm.file(t, "/a/c.txt"))
}

func TestSubmitLine_statements(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "one\ntwo\nthree\n", tm.run(t, "echo one; echo two;echo three"))
}

func TestSubmitLine_nulBytesDropped(t *testing.T) {
	tm := newTestMachine(t, exampleTree)
	tm.SetVar("name", expr.Str("bob"))

	assert.Equal(t, "costname bob\n", tm.run(t, "echo cost\x00name $name"))
}

func TestSubmitLine_oversizedExpression(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	var out string
	require.NotPanics(t, func() {
		out = tm.run(t, "echo (('a' * 9223372036854775807)); echo never")
	})
	assert.Contains(t, out, "Error - Evaluation of expression ('a' * 9223372036854775807) failed")
	assert.NotContains(t, out, "never")
}

func TestSubmitLine_redirection(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	tm.run(t, "echo first > /out.txt")
	assert.Equal(t, "first", tm.file(t, "/out.txt"))

	tm.run(t, "echo second > /out.txt")
	assert.Equal(t, "second", tm.file(t, "/out.txt"))

	tm.run(t, "echo third >> /out.txt")
	assert.Equal(t, "second\nthird", tm.file(t, "/out.txt"))

	tm.run(t, "echo new >> /fresh.txt")
	assert.Equal(t, "new", tm.file(t, "/fresh.txt"))

	assert.Equal(t, "", tm.run(t, "echo quiet > fresh.txt"), "redirected output isn't echoed")
}

func TestSubmitLine_nullDevice(t *testing.T) {
	tm := newTestMachine(t, exampleTree)
	before := vfs.ToMap(tm.FS().Root().Clone())

	out := tm.run(t, "echo hi > /dev/null", "echo hi >> /dev/null")
	assert.Empty(t, out)
	assert.Equal(t, before, vfs.ToMap(tm.FS().Root()))
	assert.Equal(t, vfs.NullDevice, tm.file(t, "/dev/null"))
}

func TestSubmitLine_invalidRedirection(t *testing.T) {
	cases := map[string]string{
		"parent is a file":      "echo x > /a/b.txt/c",
		"parent missing":        "echo x > /nope/c",
		"target is directory":   "echo x > /a",
		"append to directory":   "echo x >> /dev",
		"parent through dotdot": "echo x > /a/b.txt/../c",
	}

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			tm := newTestMachine(t, exampleTree)
			tm.Enqueue("echo never")
			out := tm.run(t, line)

			assert.Contains(t, out, "Process terminated with error code INVALID_PATH_ERROR")
			assert.NotContains(t, out, "never")
			assert.Empty(t, tm.Queue())
			assert.Equal(t, ModeEcho, tm.OutputMode())
		})
	}
}

func TestSubmitLine_pipeArguments(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "echo X\n", tm.run(t, "echo X | echo echo"))

	// Piped text lands before the consumer's redirection.
	tm.run(t, "echo X | echo piped > /p.txt")
	assert.Equal(t, "piped X", tm.file(t, "/p.txt"))

	tm.run(t, "echo Y | echo more >> /p.txt")
	assert.Equal(t, "piped X\nmore Y", tm.file(t, "/p.txt"))

	// Multi line output is joined with spaces.
	tm.SetVar("lines", expr.Str("a\nb"))
	assert.Equal(t, "got a b\n", tm.run(t, "echo $lines | echo got"))

	// Three stages.
	assert.Equal(t, "c b a\n", tm.run(t, "echo a | echo b | echo c"))
}

func TestSubmitLine_pipeBeforeQueuedStatements(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "second first\nthird\n", tm.run(t, "echo first | echo second; echo third"))
}

func TestSubmitLine_pipeIntoInputConsumer(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	tm.run(t, "echo hello | read greeting")
	v, ok := tm.Var("greeting")
	require.True(t, ok)
	assert.Equal(t, expr.Str("hello"), v)

	// Lines are consumed oldest first.
	tm.SetVar("two", expr.Str("first\nsecond"))
	tm.run(t, "echo $two | read x", "read y")
	x, _ := tm.Var("x")
	y, _ := tm.Var("y")
	assert.Equal(t, expr.Str("first"), x)
	assert.Equal(t, expr.Str("second"), y)
}

func TestSubmitLine_pipeWithoutConsumer(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "lost\n", tm.run(t, "echo lost |"))
}

func TestSubmitLine_noSplit(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, "a | b > c >> d\n", tm.run(t, "rawecho a | b > c >> d"))
	_, err := tm.FS().Resolve("/c", "/")
	assert.Error(t, err)
}

func TestSubmitLine_errorBreak(t *testing.T) {
	tm := newTestMachine(t, exampleTree)
	tm.InjectInputStream("pending")

	out := tm.run(t, "fail; echo skipped")

	assert.Equal(t, "Process terminated with error code USER_NOT_FOUND_ERROR\n", out)
	assert.Empty(t, tm.Queue())
	assert.Empty(t, tm.InputStream())
	assert.Equal(t, expr.Str("Process terminated with error code USER_NOT_FOUND_ERROR"), tm.LastOutput())
}

func TestSubmitLine_errorSignalReturned(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.Equal(t, SigUserNotFound, tm.SubmitLine("echo ok; fail; echo no"))
	assert.Equal(t, OK, tm.SubmitLine("echo ok"))
	assert.Equal(t, SignalExit, tm.SubmitLine("bye; echo never"))
	assert.Empty(t, tm.Queue())
}

func TestDispatch(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	t.Run("unknown verb", func(t *testing.T) {
		out := tm.run(t, "nope")
		assert.Contains(t, out, "Error - Command nope not found.")
		assert.Contains(t, out, "COMMAND_NOT_FOUND_ERROR")
	})

	t.Run("panic is recovered", func(t *testing.T) {
		out := tm.run(t, "boom", "echo still alive")
		assert.Contains(t, out, "Process terminated with error code ERROR")
		assert.Contains(t, out, "still alive")
	})

	t.Run("permission", func(t *testing.T) {
		assert.Contains(t, tm.run(t, "rootonly"), "PERMISSION_ERROR")
		assert.Equal(t, "privileged\n", tm.run(t, "sudo rootonly"))
		assert.Equal(t, "alice", tm.CurrentUser(), "sudo restores the user")

		tm.SetCurrentUser("bob")
		defer tm.SetCurrentUser("alice")
		assert.Contains(t, tm.run(t, "sudo rootonly"), "PERMISSION_ERROR")
	})

	t.Run("install and remove", func(t *testing.T) {
		tm.InstallVerb("hello", VerbFunc(func(m *Machine, args string) (expr.Value, Signal) {
			return expr.Str("hi " + args), OK
		}))
		assert.Equal(t, "hi there\n", tm.run(t, "hello there"))

		assert.True(t, tm.RemoveVerb("hello"))
		assert.False(t, tm.RemoveVerb("hello"))
		assert.Contains(t, tm.run(t, "hello"), "COMMAND_NOT_FOUND_ERROR")
	})

	t.Run("non string output", func(t *testing.T) {
		assert.Equal(t, "3\n", tm.run(t, "num abc"))
	})
}

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) RanCommand(user, verb, args string, sig Signal) {
	r.calls = append(r.calls, user+":"+verb+":"+args+":"+string(sig))
}

func TestDispatch_observer(t *testing.T) {
	obs := &recordingObserver{}
	m := New(nil, Options{Observer: obs})
	m.InstallVerb("echo", testVerbs["echo"])
	m.SetCurrentUser("carol")

	m.SubmitLine("echo a; missing b")

	assert.Equal(t, []string{
		"carol:echo:a:",
		"carol:missing:b:COMMAND_NOT_FOUND_ERROR",
	}, obs.calls)
}

func TestCwd_clampsWhenRemoved(t *testing.T) {
	tm := newTestMachine(t, `{"a": {"b": {}}}`)

	tm.run(t, "cd /a/b")
	assert.Equal(t, "/a/b", tm.Cwd())

	tm.run(t, "rmdir /a/b")
	assert.Equal(t, "/", tm.Cwd())
}

func TestLogin(t *testing.T) {
	tm := newTestMachine(t, exampleTree)

	assert.ErrorIs(t, tm.Login("alice", "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, tm.Login("nobody", "pw"), ErrBadCredentials)
	assert.ErrorIs(t, tm.Login("root", "toor"), ErrRootLogin)
	assert.NoError(t, tm.Login("bob", "pw"))
	assert.Equal(t, "bob", tm.CurrentUser())
	assert.Equal(t, PermUser, tm.CurrentPermission())
}

func TestProcesses(t *testing.T) {
	m := New(nil, Options{})

	assert.Equal(t, []string{ShellProcess}, m.Processes())
	m.StartProcess("server")
	m.StartProcess("server")
	assert.Equal(t, []string{ShellProcess, "server"}, m.Processes())
	assert.True(t, m.StopProcess("server"))
	assert.False(t, m.StopProcess("server"))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("notes.txt"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("a/b"))
	assert.False(t, ValidName("a b"))
	assert.False(t, ValidName("a>b"))
}
