package builtin

import (
	"time"

	"github.com/df-mc/worldedit/server/edit"
	"github.com/df-mc/worldedit/server/permission"
	"github.com/df-mc/worldedit/server/world"
)

type serverAdapter interface {
	Engine() *edit.Engine
	Grants() *permission.Grants
	Worlds() []*world.World
	StartTime() time.Time
	Close() error
}
