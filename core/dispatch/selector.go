package dispatch

import (
	"github.com/mongocore/driver/core/description"
	"github.com/mongocore/driver/core/writeconcern"
)

// useWriteCommands decides the wire form of a write. Command emulation is
// used only when the server supports write commands and the write concern
// requests an acknowledgement; unacknowledged writes always take the legacy
// opcode so the server does not send a reply nobody reads.
func useWriteCommands(desc description.Connection, wc *writeconcern.WriteConcern) bool {
	return description.SupportsWriteCommands(desc) && wc.Acknowledged()
}
