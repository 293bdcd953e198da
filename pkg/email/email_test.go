package email

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourskilllab/pkg/logger"
)

func TestComposeMultipart(t *testing.T) {
	raw, err := Compose("OurSkillLab <noreply@ourskilllab.com>", &Message{
		To:       "learner@example.com",
		ToName:   "Ada",
		Subject:  "Your receipt",
		TextBody: "Thanks for enrolling",
		HTMLBody: "<p>Thanks for enrolling</p>",
	})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, `"Ada" <learner@example.com>`, msg.Header.Get("To"))
	assert.Equal(t, "Your receipt", msg.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])
	var types []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		types = append(types, strings.Split(part.Header.Get("Content-Type"), ";")[0])
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Thanks for enrolling")
	}
	assert.Equal(t, []string{"text/plain", "text/html"}, types)
}

func TestLogSender(t *testing.T) {
	log, err := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Format: "json"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	sender := NewLogSender(log)
	require.NoError(t, sender.Send(context.Background(), &Message{To: "a@example.com", Subject: "Hi", TextBody: "code 123456"}))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a@example.com", entry["to"])

	assert.ErrorIs(t, sender.Send(context.Background(), &Message{}), ErrNoRecipient)
}
