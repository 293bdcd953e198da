package sms

import (
	"context"

	"github.com/google/uuid"

	"ourskilllab/pkg/logger"
)

// LogProvider writes messages to the application log instead of sending
// them. Used in development and when no SMS gateway is configured.
type LogProvider struct {
	logger *logger.Logger
}

func NewLogProvider(log *logger.Logger) *LogProvider {
	return &LogProvider{logger: log}
}

func (l *LogProvider) Name() string {
	return "log"
}

func (l *LogProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	id := uuid.NewString()
	l.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"sms_id":  id,
		"to":      request.To,
		"type":    request.Type,
		"message": request.Message,
	}).Info("SMS delivery skipped, message logged")

	return &SMSResponse{MessageID: id, Status: "logged"}, nil
}
