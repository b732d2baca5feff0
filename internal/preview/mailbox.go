package preview

import "pagebuilder/internal/surface"

// Mailbox holds at most one outstanding directive. Replace discards whatever
// was waiting: only the latest editing intent has to reach the surface.
type Mailbox struct {
	slot surface.Directive
	seq  uint64
}

// Peek returns the pending directive, or surface.None.
func (m Mailbox) Peek() surface.Directive {
	if m.slot == nil {
		return surface.None{}
	}
	return m.slot
}

// Pending reports whether a directive is waiting for the surface.
func (m Mailbox) Pending() bool { return !surface.IsNone(m.slot) }

// Seq counts replacements. It changes whenever a classified action put a new
// directive in the slot, even when the new directive equals the old one.
func (m Mailbox) Seq() uint64 { return m.seq }

// Replace stores d and returns the directive it discarded.
func (m *Mailbox) Replace(d surface.Directive) surface.Directive {
	discarded := m.Peek()
	if surface.IsNone(d) {
		d = nil
	}
	m.slot = d
	m.seq++
	return discarded
}

// Clear empties the slot. Clearing an empty mailbox changes nothing.
func (m *Mailbox) Clear() {
	m.slot = nil
}
