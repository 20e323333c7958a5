package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeHello      MessageType = "hello"
	MessageTypeJoinTable  MessageType = "join_table"
	MessageTypeLeaveTable MessageType = "leave_table"
	MessageTypeAction     MessageType = "action"
	MessageTypeListTables MessageType = "list_tables"

	// Server to client messages
	MessageTypeWelcome       MessageType = "welcome"
	MessageTypeTableSnapshot MessageType = "table_snapshot"
	MessageTypeTableLeft     MessageType = "table_left"
	MessageTypeTableList     MessageType = "table_list"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
