package core

import (
	"bytes"
	"encoding/base64"
	"net/mail"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		TextContent string
		HTMLContent string
		Attachments []Attachment
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (msg *EmailMessage) HasRecipients() bool {
	return len(msg.To) > 0 || len(msg.Cc) > 0 || len(msg.Bcc) > 0
}

func (msg *EmailMessage) HasContent() bool {
	return msg.TextContent != "" || msg.HTMLContent != ""
}

func (msg *EmailMessage) HasAttachments() bool {
	return len(msg.Attachments) > 0
}

func (msg *EmailMessage) Attach(filename, contentType string, content []byte) {
	msg.Attachments = append(msg.Attachments, Attachment{
		Content:     bytes.NewBuffer(content),
		ContentType: contentType,
		Filename:    filename,
	})
}

// Base64 returns the attachment content encoded for transport.
func (at Attachment) Base64() string {
	if at.Content == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(at.Content.Bytes())
}
