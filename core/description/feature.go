package description

// supportsWriteCommandsWireVersion is the wire version at which the server
// accepts write commands and the legacy write opcodes are deprecated
// (server 2.6).
const supportsWriteCommandsWireVersion = 2

// SupportsWriteCommands returns whether the server behind this description
// accepts write commands in place of the legacy write opcodes. This is the
// single place version-skew knowledge lives; operations consult it rather
// than checking versions themselves.
func SupportsWriteCommands(d Connection) bool {
	if d.WireVersion.Max >= supportsWriteCommandsWireVersion {
		return true
	}
	return d.Version.AtLeast(2, 6, 0)
}

// ReplicaSetMember returns whether the server behind this description is a
// member of a replica set.
func ReplicaSetMember(d Connection) bool {
	return d.SetName != ""
}
