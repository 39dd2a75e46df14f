package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady         = "ready"
	MsgPong          = "pong"
	MsgDatasetSeeded = "dataset_seeded"
	MsgError         = "error"
)
