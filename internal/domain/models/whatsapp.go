package models

import "strings"

// WebhookPayload mirrors the structure sent by Meta's WhatsApp Cloud API webhook callbacks.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one entry payload within the webhook body.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange captures the actual notification contents.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue contains message metadata, contacts and message events sent by users.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
	Statuses         []MessageStatus  `json:"statuses"`
}

// Metadata contains WhatsApp phone identifiers for the business account.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact represents the WhatsApp user initiating the conversation.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile contains the human-friendly contact name.
type ContactProfile struct {
	Name string `json:"name"`
}

// InboundMessage is a single customer message. Only text messages drive the booking flow.
type InboundMessage struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *TextContent `json:"text,omitempty"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// MessageStatus represents delivery/read receipts coming from WhatsApp.
type MessageStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// FirstMessage returns the first message of the first change of the first entry.
// Status callbacks and empty deliveries yield ok=false.
func (p WebhookPayload) FirstMessage() (InboundMessage, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return InboundMessage{}, false
	}
	messages := p.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return InboundMessage{}, false
	}
	return messages[0], true
}

// TextBody returns the body of a text message, or ok=false for any other message type.
func (m InboundMessage) TextBody() (string, bool) {
	if !strings.EqualFold(m.Type, "text") || m.Text == nil {
		return "", false
	}
	return m.Text.Body, true
}
