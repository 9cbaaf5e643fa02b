package network_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/josephlewis42/dooros/commands"
	"github.com/josephlewis42/dooros/core/machine"
	"github.com/josephlewis42/dooros/core/network"
	"github.com/josephlewis42/dooros/core/vfs"
	"github.com/josephlewis42/dooros/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTree = `
srv:
  echo.sh: "echo got $message from $sender"
  reply.sh: "msg $sender pong"
`

type host struct {
	*machine.Machine
	console *bytes.Buffer
	addr    int
}

func newHost(t *testing.T, r *network.Router, name string) *host {
	t.Helper()
	root, err := vfs.LoadDocument([]byte(testTree))
	require.NoError(t, err)

	console := &bytes.Buffer{}
	m := machine.New(root, machine.Options{
		Name:    name,
		Stdout:  console,
		Users:   map[string]*machine.User{"alice": {Password: "pw", Permission: machine.PermSudo}},
		Modules: modules.Directory(),
	})
	commands.Install(m)
	require.NoError(t, modules.Preinstall(m, modules.Names()))
	require.NoError(t, m.Login("alice", "pw"))

	return &host{Machine: m, console: console, addr: r.Attach(m)}
}

func (h *host) run(t *testing.T, r *network.Router, line string) (string, machine.Signal) {
	t.Helper()
	h.console.Reset()
	sig := r.Submit(h.Machine, line)
	return h.console.String(), sig
}

func TestRouter_Attach(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	assert.Equal(t, network.FirstAddress, a.addr)
	assert.Equal(t, network.FirstAddress+1, b.addr)
	assert.Equal(t, a.addr, r.Attach(a.Machine))
	assert.Equal(t, []int{100, 101}, r.Addresses())

	got, ok := r.Machine(101)
	require.True(t, ok)
	assert.Same(t, b.Machine, got)

	addr, ok := r.Address(a.Machine)
	assert.True(t, ok)
	assert.Equal(t, 100, addr)

	r.Detach(a.Machine)
	assert.Equal(t, []int{101}, r.Addresses())
	assert.Nil(t, a.Network())
	_, ok = r.Machine(100)
	assert.False(t, ok)

	c := newHost(t, r, "c")
	assert.Equal(t, 102, c.addr, "addresses aren't reused")
}

func TestRouter_msg(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	out, sig := a.run(t, r, "msg 101 hello")
	assert.Equal(t, machine.OK, sig)
	assert.Equal(t, "Message sent to 101.\n", out)

	r.Wait()
	assert.Equal(t, []string{"MSGFROM 100:hello"}, b.InputStream())

	out, sig = b.run(t, r, "read line; echo $line")
	assert.Equal(t, machine.OK, sig)
	assert.Equal(t, "MSGFROM 100:hello\n", out)
}

func TestRouter_serverResponds(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	out, _ := b.run(t, r, "server start")
	assert.Equal(t, "Server started on address 101.\n", out)

	b.console.Reset()
	a.run(t, r, "msg 101 hello")
	r.Wait()

	assert.Equal(t, "Message from 100: hello\n", b.console.String())
	assert.Empty(t, b.InputStream())
}

func TestRouter_serverHandler(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	b.run(t, r, "server start /srv/echo.sh")
	b.console.Reset()
	a.run(t, r, "msg 101 ping")
	r.Wait()

	assert.Equal(t, "got ping from 100\n", b.console.String())
}

func TestRouter_serverReplies(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	b.run(t, r, "server start /srv/reply.sh")
	a.run(t, r, "msg 101 ping")
	r.Wait()

	assert.Equal(t, []string{"MSGFROM 101:pong"}, a.InputStream())
}

func TestRouter_slink(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")
	b := newHost(t, r, "b")

	_, sig := a.run(t, r, "echo -e 'x\\ny' | slink 101")
	assert.Equal(t, machine.SigModuleNotFound, sig)

	out, sig := b.run(t, r, "slink listen")
	assert.Equal(t, machine.OK, sig)
	assert.Equal(t, "Accepting links on address 101.\n", out)
	assert.Contains(t, b.Processes(), modules.SlinkProcess)

	b.InjectInputStream("stale")
	out, sig = a.run(t, r, "echo -e 'x\\ny' | slink 101")
	assert.Equal(t, machine.OK, sig)
	assert.Equal(t, "Linked 2 lines to 101.\n", out)
	assert.Empty(t, a.InputStream())

	r.Wait()
	assert.Equal(t, []string{"x", "y"}, b.InputStream())

	out, _ = b.run(t, r, "slink close")
	assert.Equal(t, "Links closed.\n", out)
	_, sig = a.run(t, r, "slink 101")
	assert.Equal(t, machine.SigModuleNotFound, sig)
}

func TestRouter_errors(t *testing.T) {
	r := network.New(nil)
	a := newHost(t, r, "a")

	cases := map[string]machine.Signal{
		"msg 999 hello": machine.SigPathNotFound,
		"slink 999":     machine.SigPathNotFound,
	}
	for line, want := range cases {
		t.Run(line, func(t *testing.T) {
			_, sig := a.run(t, r, line)
			assert.Equal(t, want, sig)
		})
	}

	detached := machine.New(nil, machine.Options{})
	assert.ErrorIs(t, r.Send(detached, 100, "hi"), network.ErrNotAttached)
	assert.ErrorIs(t, r.Link(detached, 100, nil), network.ErrNotAttached)
	assert.ErrorIs(t, r.Listen(detached, true), network.ErrNotAttached)
	assert.ErrorIs(t, r.Send(a.Machine, 999, "hi"), network.ErrUnknownAddress)
}

func TestRouter_concurrentSenders(t *testing.T) {
	r := network.New(nil)
	target := newHost(t, r, "target")

	const senders, messages = 4, 10
	var hosts []*host
	for i := 0; i < senders; i++ {
		hosts = append(hosts, newHost(t, r, fmt.Sprintf("sender%d", i)))
	}

	var wg sync.WaitGroup
	for _, h := range hosts {
		wg.Add(1)
		go func(h *host) {
			defer wg.Done()
			for i := 0; i < messages; i++ {
				r.Submit(h.Machine, fmt.Sprintf("msg %d hello", target.addr))
			}
		}(h)
	}
	wg.Wait()
	r.Wait()

	assert.Len(t, target.InputStream(), senders*messages)
}
