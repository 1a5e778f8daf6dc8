package builtin

import (
	"github.com/df-mc/worldedit/server/cmd"
)

// Register registers the built-in command set on the provided server.
func Register(srv serverAdapter) {
	cmd.Register(newHelpCommand())
	cmd.Register(newAboutCommand(srv))
	cmd.Register(newListCommand(srv))
	cmd.Register(newStatusCommand(srv))
	cmd.Register(newStopCommand(srv))
	cmd.Register(newPermCommand(srv))

	cmd.Register(newPosCommand(srv, true))
	cmd.Register(newPosCommand(srv, false))
	cmd.Register(newSelCommand(srv))
	cmd.Register(newPolyCommand(srv))
	cmd.Register(newExpandCommand(srv))
	cmd.Register(newContractCommand(srv))
	cmd.Register(newSizeCommand(srv))
	cmd.Register(newWorldCommand(srv))

	cmd.Register(newSetCommand(srv))
	cmd.Register(newReplaceCommand(srv))
	cmd.Register(newCylCommand(srv))

	cmd.Register(newUndoCommand(srv))
	cmd.Register(newRedoCommand(srv))
	cmd.Register(newClearHistoryCommand(srv))
	cmd.Register(newHistoryCommand(srv))

	cmd.Register(newFastCommand(srv))
	cmd.Register(newSideEffectsCommand(srv))
}
