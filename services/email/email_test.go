package emailsvc

import (
	"bytes"
	"fmt"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GithubESPI/bulletins/core"
)

var testConf = &core.Config{
	AppName:          "Bulletins",
	DefaultFromEmail: mail.Address{Name: "Bulletins", Address: "noreply@test.fr"},
	SendgridApiKey:   "key",
}

func newArchiveMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: "Scolarité", Address: "scolarite@test.fr"}},
		Cc:          []mail.Address{{Address: "direction@test.fr"}},
		Subject:     "Bulletins S1",
		TextContent: "2 bulletins",
	}
	require.NoError(t, msg.Attach(bytes.NewReader([]byte("PK\x03\x04")), "bulletins_S1.zip", "application/zip"))
	return msg
}

func Test_consoleServiceMock_SendMessages(t *testing.T) {
	ClearSentMessages()
	svc := NewConsoleServiceMock(testConf)

	noRecipient := &core.EmailMessage{Subject: "lost", TextContent: "nobody"}
	noContent := &core.EmailMessage{To: []mail.Address{{Address: "a@test.fr"}}, Subject: "empty"}
	svc.SendMessages(newArchiveMessage(t), noRecipient, noContent)

	require.Len(t, SentMessages, 1)
	sent := SentMessages[0]
	assert.Equal(t, "Bulletins S1", sent.Subject)
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "application/zip", sent.Attachments[0].ContentType)
	assert.Equal(t, "UEsDBA==", sent.Attachments[0].Content.String())
}

func Test_sendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, nil)
	m := svc.prepare(*newArchiveMessage(t))

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Bulletins] Bulletins S1", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "scolarite@test.fr", p.To[0].Address)
	require.Len(t, p.CC, 1)
	assert.Equal(t, "noreply@test.fr", m.From.Address)

	require.Len(t, m.Content, 1) // no empty html part
	assert.Equal(t, "text/plain", m.Content[0].Type)

	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "bulletins_S1.zip", m.Attachments[0].Filename)
	assert.Equal(t, "attachment", m.Attachments[0].Disposition)
}

type logEntry struct {
	msg  string
	args []interface{}
}

type recordingLogger struct {
	errors []logEntry
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}
func (l *recordingLogger) Error(msg string, args ...interface{}) {
	l.errors = append(l.errors, logEntry{msg: msg, args: args})
}

func Test_sendgridService_send(t *testing.T) {
	origAPI := sendgridAPIFunc
	t.Cleanup(func() { sendgridAPIFunc = origAPI })

	tests := []struct {
		name    string
		res     *rest.Response
		err     error
		wantLog string
	}{
		{name: "accepted", res: &rest.Response{StatusCode: 202}},
		{name: "rejected", res: &rest.Response{StatusCode: 400, Body: "bad request"}, wantLog: `sending email "Bulletins S1": sendgrid status 400: bad request`},
		{name: "unreachable", err: errors.New("dial tcp: timeout"), wantLog: `sending email "Bulletins S1": dial tcp: timeout`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotReq rest.Request
			sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
				gotReq = req
				return tt.res, tt.err
			}
			logger := new(recordingLogger)
			svc := NewSendgridService(testConf, logger)

			svc.send(*newArchiveMessage(t))

			assert.Equal(t, host+endpoint, gotReq.BaseURL)
			assert.Equal(t, "Bearer key", gotReq.Headers["Authorization"])
			if tt.wantLog == "" {
				assert.Empty(t, logger.errors)
				return
			}
			require.Len(t, logger.errors, 1)
			entry := logger.errors[0]
			assert.Equal(t, tt.wantLog, entry.msg)
			require.Len(t, entry.args, 2)
			assert.Contains(t, fmt.Sprint(entry.args[0]), "sending email")
			assert.Equal(t, map[string]interface{}{
				"subject":     "Bulletins S1",
				"to":          []string{"scolarite@test.fr"},
				"attachments": []string{"bulletins_S1.zip"},
			}, entry.args[1])
		})
	}
}
