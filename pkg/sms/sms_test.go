package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourskilllab/pkg/logger"
)

func TestLogProviderWritesMessage(t *testing.T) {
	log, err := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Format: "json"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	provider := NewLogProvider(log)
	resp, err := provider.SendSMS(context.Background(), &SMSRequest{
		To:      "+15551234567",
		Message: "Your OurSkillLab code is 123456",
		Type:    MessageTypeOTP,
	})
	require.NoError(t, err)
	assert.Equal(t, "logged", resp.Status)
	assert.NotEmpty(t, resp.MessageID)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "+15551234567", entry["to"])
	assert.Equal(t, resp.MessageID, entry["sms_id"])
}

func TestSMSType(t *testing.T) {
	assert.Equal(t, "Transactional", smsType(MessageTypeOTP))
	assert.Equal(t, "Transactional", smsType(MessageTypeTransactional))
	assert.Equal(t, "Promotional", smsType(MessageTypePromotional))
}

func TestTwilioFromNumberFallback(t *testing.T) {
	provider := NewTwilioProvider("AC123", "token", "+15550000000")
	assert.Equal(t, "+15550000000", provider.getFromNumber(""))
	assert.Equal(t, "+15551111111", provider.getFromNumber("+15551111111"))
	assert.Equal(t, "twilio", provider.Name())
}
