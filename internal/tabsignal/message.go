package tabsignal

import "time"

const (
	// Channel carries "save current tab" requests to the popup
	Channel = "sitesaver:tab:save"
	// MessageType identifies a save request on the channel
	MessageType = "SITE_SAVED"
	// KeyPrefixAck is the prefix of the per-message reply list
	KeyPrefixAck = "sitesaver:tab:ack:"
	// ackTTL bounds how long an unread ack stays in Redis
	ackTTL = 30 * time.Second
)

// Tab is the browser tab the command was issued from.
type Tab struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// Message is published on Channel.
type Message struct {
	Type    string `json:"type"`
	Payload Tab    `json:"payload"`
	ReplyTo string `json:"reply_to"`
}

// Ack is pushed on ReplyTo as soon as the popup has the message.
type Ack struct {
	Received bool      `json:"received"`
	At       time.Time `json:"at"`
}

// AckKey returns the reply list for a message id
func AckKey(id string) string {
	return KeyPrefixAck + id
}
