// Package network relays messages and input links between machines.
//
// Senders never block on a recipient: deliveries are queued in the
// recipient's mailbox and moved into its input stream the next time the
// recipient runs, or by a background delivery that also wakes the
// recipient's server process.
package network

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/josephlewis42/dooros/core/machine"
)

// FirstAddress is the address given to the first attached machine.
const FirstAddress = 100

// ServerProcess is the process that gets woken up when a message arrives.
const ServerProcess = "server"

var (
	// ErrUnknownAddress is returned when no machine has the address.
	ErrUnknownAddress = errors.New("unknown address")
	// ErrNotAttached is returned when the sender isn't on the network.
	ErrNotAttached = errors.New("machine is not attached to the network")
	// ErrLinkRefused is returned when the recipient isn't accepting links.
	ErrLinkRefused = errors.New("recipient is not accepting links")
)

// MessageLine formats a message the way it appears in the recipient's input
// stream.
func MessageLine(from int, content string) string {
	return fmt.Sprintf("MSGFROM %d:%s", from, content)
}

type delivery struct {
	lines []string
	// replace swaps the whole input stream instead of appending.
	replace bool
}

type node struct {
	addr int
	m    *machine.Machine

	// mu serializes execution on the machine.
	mu sync.Mutex

	mailboxMu sync.Mutex
	mailbox   []delivery
	accepting bool
}

// Router assigns addresses and moves messages between machines.
type Router struct {
	mu     sync.Mutex
	next   int
	byAddr map[int]*node
	byM    map[*machine.Machine]*node

	pending sync.WaitGroup
	logger  *log.Logger
}

var _ machine.Network = (*Router)(nil)

// New creates an empty router. A nil logger discards delivery errors.
func New(logger *log.Logger) *Router {
	return &Router{
		next:   FirstAddress,
		byAddr: make(map[int]*node),
		byM:    make(map[*machine.Machine]*node),
		logger: logger,
	}
}

// Attach gives the machine the next address and connects it to the router.
// Attaching a machine twice returns its existing address.
func (r *Router) Attach(m *machine.Machine) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.byM[m]; ok {
		return n.addr
	}
	n := &node{addr: r.next, m: m}
	r.next++
	r.byAddr[n.addr] = n
	r.byM[m] = n
	m.SetNetwork(r)
	return n.addr
}

// Detach removes the machine from the network, its address isn't reused.
func (r *Router) Detach(m *machine.Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, ok := r.byM[m]; ok {
		delete(r.byM, m)
		delete(r.byAddr, n.addr)
		m.SetNetwork(nil)
	}
}

// Addresses returns the sorted addresses of the attached machines.
func (r *Router) Addresses() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []int
	for addr := range r.byAddr {
		out = append(out, addr)
	}
	sort.Ints(out)
	return out
}

// Machine returns the machine with the address.
func (r *Router) Machine(addr int) (*machine.Machine, bool) {
	n, ok := r.lookup(addr)
	if !ok {
		return nil, false
	}
	return n.m, true
}

func (r *Router) lookup(addr int) (*node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byAddr[addr]
	return n, ok
}

func (r *Router) nodeOf(m *machine.Machine) (*node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byM[m]
	return n, ok
}

// Address implements machine.Network.
func (r *Router) Address(m *machine.Machine) (int, bool) {
	n, ok := r.nodeOf(m)
	if !ok {
		return 0, false
	}
	return n.addr, true
}

// Send implements machine.Network. The message is delivered in the
// background.
func (r *Router) Send(from *machine.Machine, to int, content string) error {
	sender, ok := r.nodeOf(from)
	if !ok {
		return ErrNotAttached
	}
	recipient, ok := r.lookup(to)
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownAddress, to)
	}

	r.post(recipient, delivery{lines: []string{MessageLine(sender.addr, content)}})
	return nil
}

// Link implements machine.Network. The recipient's input stream is replaced
// in the background.
func (r *Router) Link(from *machine.Machine, to int, lines []string) error {
	if _, ok := r.nodeOf(from); !ok {
		return ErrNotAttached
	}
	recipient, ok := r.lookup(to)
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownAddress, to)
	}

	recipient.mailboxMu.Lock()
	accepting := recipient.accepting
	recipient.mailboxMu.Unlock()
	if !accepting {
		return fmt.Errorf("%w: %d", ErrLinkRefused, to)
	}

	r.post(recipient, delivery{lines: append([]string(nil), lines...), replace: true})
	return nil
}

// Listen implements machine.Network.
func (r *Router) Listen(m *machine.Machine, accept bool) error {
	n, ok := r.nodeOf(m)
	if !ok {
		return ErrNotAttached
	}
	n.mailboxMu.Lock()
	defer n.mailboxMu.Unlock()
	n.accepting = accept
	return nil
}

// post queues a delivery and starts a background flush.
func (r *Router) post(n *node, d delivery) {
	n.mailboxMu.Lock()
	n.mailbox = append(n.mailbox, d)
	n.mailboxMu.Unlock()

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()

		n.mu.Lock()
		defer n.mu.Unlock()
		r.flush(n)
		r.wake(n)
	}()
}

// flush moves the mailbox into the input stream, n.mu must be held.
func (r *Router) flush(n *node) {
	n.mailboxMu.Lock()
	mailbox := n.mailbox
	n.mailbox = nil
	n.mailboxMu.Unlock()

	for _, d := range mailbox {
		if d.replace {
			n.m.ReplaceInputStream(d.lines)
		} else {
			n.m.InjectInputStream(d.lines...)
		}
	}
}

// wake lets a running server answer its messages, n.mu must be held.
func (r *Router) wake(n *node) {
	if !n.m.HasProcess(ServerProcess) {
		return
	}
	if _, ok := n.m.LookupVerb(ServerProcess); !ok {
		return
	}
	if sig := n.m.SubmitLine("server respond"); sig.IsError() {
		r.logf("server on %d failed to respond: %s", n.addr, sig)
	}
}

// Submit runs a line on an attached machine once nothing else is running on
// it. Queued deliveries are moved into the input stream first.
func (r *Router) Submit(m *machine.Machine, line string) machine.Signal {
	n, ok := r.nodeOf(m)
	if !ok {
		return m.SubmitLine(line)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	r.flush(n)
	return m.SubmitLine(line)
}

// Wait blocks until every background delivery has finished.
func (r *Router) Wait() {
	r.pending.Wait()
}

func (r *Router) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
