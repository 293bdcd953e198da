package sms

import "context"

type SMSProvider interface {
	Name() string
	SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error)
}

type MessageType string

const (
	MessageTypeOTP           MessageType = "otp"
	MessageTypeTransactional MessageType = "transactional"
	MessageTypePromotional   MessageType = "promotional"
)

type SMSRequest struct {
	To      string      `json:"to"`
	From    string      `json:"from"`
	Message string      `json:"message"`
	Type    MessageType `json:"type"`
}

type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
