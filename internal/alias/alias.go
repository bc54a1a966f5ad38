// Package alias maps logical LED names onto the physical LEDs of a platform.
package alias

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// All is the pseudo-name that addresses every LED.
const All = "ALL"

// IsAll reports whether name is the ALL pseudo-name, ignoring case.
func IsAll(name string) bool {
	return strings.EqualFold(name, All)
}

// Definition is one logical name and the physical LEDs it stands for.
type Definition struct {
	Name string   `json:"name" yaml:"name"`
	LEDs []string `json:"aliases" yaml:"aliases"`
}

// Resolver looks up aliases case-insensitively. A nil Resolver has no
// aliases.
type Resolver struct {
	entries map[string]Definition
}

// New builds a Resolver. Duplicate names are rejected.
func New(defs []Definition) (*Resolver, error) {
	r := &Resolver{entries: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("alias with no name")
		}
		key := strings.ToLower(def.Name)
		if _, exists := r.entries[key]; exists {
			return nil, fmt.Errorf("duplicate alias %q", def.Name)
		}
		r.entries[key] = Definition{
			Name: def.Name,
			LEDs: append([]string(nil), def.LEDs...),
		}
	}
	return r, nil
}

// Lookup returns the physical names behind an alias, in definition order.
func (r *Resolver) Lookup(name string) ([]string, bool) {
	if r == nil {
		return nil, false
	}
	def, ok := r.entries[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return def.LEDs, true
}

// Contains reports whether alias name includes the physical LED ledName.
func (r *Resolver) Contains(name, ledName string) bool {
	leds, ok := r.Lookup(name)
	if !ok {
		return false
	}
	for _, l := range leds {
		if strings.EqualFold(l, ledName) {
			return true
		}
	}
	return false
}

// Names returns the alias names as defined, sorted case-insensitively.
func (r *Resolver) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.entries))
	for _, def := range r.entries {
		names = append(names, def.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Len returns the number of aliases.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}
