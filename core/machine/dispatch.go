package machine

import (
	"log"

	"github.com/josephlewis42/dooros/core/expr"
)

// Dispatch runs one verb. Unknown verbs return SigCommandNotFound, verbs
// requiring more privilege than the acting user has return SigPermission,
// and a panicking verb is reported as SignalError.
func (m *Machine) Dispatch(verb, args string) (value expr.Value, sig Signal) {
	if verb == "" {
		return nil, OK
	}
	if m.observer != nil {
		defer func() {
			m.observer.RanCommand(m.user, verb, args, sig)
		}()
	}

	v, ok := m.verbs[verb]
	if !ok {
		m.Errorf("Command %s not found.", verb)
		return nil, SigCommandNotFound
	}
	if cmd := commandOf(v); cmd.Requires > PermUser {
		if sig := m.Require(cmd.Requires); sig != OK {
			return nil, sig
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("verb %q panicked: %v", verb, r)
			m.Errorf("%s crashed.", verb)
			value, sig = nil, SignalError
		}
	}()

	return v.Main(m, args)
}
