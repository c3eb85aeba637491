package dto

type CreateMessageInput struct {
	RoomID     string  `json:"roomId" binding:"required,max=100"`
	ReceiverID *string `json:"receiverId" binding:"omitempty,uuid"`
	Text       string  `json:"text" binding:"required,max=5000"`
	Type       string  `json:"type" binding:"omitempty,oneof=chat ai"`
}

// ChatEnvelope is the websocket wire format; event is "send_message"
// client-to-server and "receive_message" server-to-client.
type ChatEnvelope struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}
