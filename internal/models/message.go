package models

// IncomingMessage is a chat message received by the bot
type IncomingMessage struct {
	Channel string
	User    string
	Text    string
	SubType string
	BotID   string
}

// FromBot reports whether the message was posted by a bot integration
func (m IncomingMessage) FromBot() bool {
	return m.BotID != "" || m.SubType == "bot_message"
}
