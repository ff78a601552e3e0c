package websocket

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// scoped is a message on its way through the hub. An empty scope reaches every client.
type scoped struct {
	scope string
	data  []byte
}
