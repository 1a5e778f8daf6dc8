// Package permission decides if subjects may use permission-gated features.
// Permission nodes are remapped through a Table before they are looked up in
// a Service, so that hosts without a permission system can grant access by
// command.
package permission

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Subject is an entity that permissions are checked for.
type Subject interface {
	// UUID returns the profile id of the Subject.
	UUID() uuid.UUID
	// Name returns the profile name of the Subject.
	Name() string
	// Operator reports if the Subject may run operator commands.
	Operator() bool
	// Creative reports if the Subject is in creative mode.
	Creative() bool
}

// Provider decides if a Subject holds a permission.
type Provider interface {
	HasPermission(s Subject, node string) bool
}

// Service is an external source of granted permission keys.
type Service interface {
	Granted(s Subject, key string) bool
}

// Vanilla is a Provider for hosts without a permission plugin. A Subject
// holds a permission if cheat mode is enabled, if it is an operator, if the
// Service grants the mapped key, or if creative mode grants are enabled and
// the Subject is in creative mode.
type Vanilla struct {
	table   Table
	service Service

	cheatMode      atomic.Bool
	creativeEnable atomic.Bool
}

// NewVanilla creates a Vanilla provider. If table is nil, DefaultTable is
// used. service may be nil.
func NewVanilla(table Table, service Service) *Vanilla {
	if table == nil {
		table = DefaultTable()
	}
	return &Vanilla{table: table, service: service}
}

// SetCheatMode grants every permission to every Subject while enabled.
func (v *Vanilla) SetCheatMode(enabled bool) {
	v.cheatMode.Store(enabled)
}

// SetCreativeEnabled grants every permission to Subjects in creative mode
// while enabled.
func (v *Vanilla) SetCreativeEnabled(enabled bool) {
	v.creativeEnable.Store(enabled)
}

// HasPermission ...
func (v *Vanilla) HasPermission(s Subject, node string) bool {
	if s == nil {
		return false
	}
	return v.cheatMode.Load() ||
		s.Operator() ||
		(v.service != nil && v.service.Granted(s, v.table.Map(node))) ||
		(v.creativeEnable.Load() && s.Creative())
}

// Compile time check to make sure Vanilla implements Provider.
var _ Provider = (*Vanilla)(nil)
