package led

import (
	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/priority"
)

// Matches reports whether target, which may be ALL, an alias or a physical
// name, addresses l.
func (r *Registry) Matches(l *LED, target string) bool {
	if alias.IsAll(target) {
		return true
	}
	if r.aliases.Contains(target, l.name) {
		return true
	}
	direct, ok := r.Lookup(target)
	return ok && direct == l
}

// Overlaps reports whether targets a and b share at least one physical LED
// at the same priority. Both sides are alias aware.
func (r *Registry) Overlaps(a string, pa priority.Level, b string, pb priority.Level) bool {
	if !pa.Valid() || !pb.Valid() || pa != pb {
		return false
	}

	if alias.IsAll(a) {
		for _, l := range r.order {
			if r.Matches(l, b) {
				return true
			}
		}
		return false
	}

	if members, ok := r.aliases.Lookup(a); ok {
		for _, member := range members {
			if l, found := r.Lookup(member); found && r.Matches(l, b) {
				return true
			}
		}
	}

	l, ok := r.Lookup(a)
	return ok && r.Matches(l, b)
}
