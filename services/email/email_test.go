package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminzone/backend/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newMessage() *core.EmailMessage {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: "Pop Ion", Address: "ion@uni.ro"}},
		Subject:     "Foaie matricola",
		TextContent: "Buna ziua",
	}
	msg.Attach("Matricola_Pop_Ion.pdf", "application/pdf", []byte("%PDF-1.3"))
	return msg
}

func TestConsoleService(t *testing.T) {
	conf := core.NewTestConfig("")
	svc := NewConsoleServiceMock(conf, nopLogger{})

	tests := []struct {
		name string
		msg  *core.EmailMessage
		sent bool
	}{
		{name: "with attachment", msg: newMessage(), sent: true},
		{name: "no recipients", msg: &core.EmailMessage{Subject: "x", TextContent: "y"}},
		{name: "no content", msg: &core.EmailMessage{To: []mail.Address{{Address: "a@b.ro"}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := len(svc.SentMessages())
			svc.SendMessages(tc.msg)
			if tc.sent {
				assert.Len(t, svc.SentMessages(), before+1)
			} else {
				assert.Len(t, svc.SentMessages(), before)
			}
		})
	}

	t.Run("render", func(t *testing.T) {
		body, err := svc.render(*newMessage())
		require.NoError(t, err)
		assert.Contains(t, body, "Subject: [AdminZone] Foaie matricola")
		assert.Contains(t, body, `To: "Pop Ion" <ion@uni.ro>`)
		assert.Contains(t, body, "filename=Matricola_Pop_Ion.pdf")
		assert.Contains(t, body, "JVBERi0xLjM=") // base64 of the attachment
	})
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig("")
	conf.SendgridApiKey = "SG.test"
	svc := NewSendgridService(conf, nopLogger{})

	m := svc.prepare(*newMessage())
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[AdminZone] Foaie matricola", m.Personalizations[0].Subject)
	require.Len(t, m.Personalizations[0].To, 1)
	assert.Equal(t, "ion@uni.ro", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@localhost", m.From.Address)
	require.Len(t, m.Content, 1)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "JVBERi0xLjM=", m.Attachments[0].Content)
}

func TestNewEmailService(t *testing.T) {
	conf := core.NewTestConfig("")
	_, isConsole := NewEmailService(conf, nopLogger{}).(*ConsoleService)
	assert.True(t, isConsole)

	conf.SendgridApiKey = "SG.test"
	_, isSendgrid := NewEmailService(conf, nopLogger{}).(*SendgridService)
	assert.True(t, isSendgrid)
}
