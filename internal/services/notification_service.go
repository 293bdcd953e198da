package services

import (
	"context"
	"fmt"
	"time"

	"ourskilllab/internal/utils"
	"ourskilllab/pkg/email"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/sms"
)

// NotificationService delivers OTP codes and receipts. Callers decide whether
// a delivery failure is fatal.
type NotificationService interface {
	SendMobileOTP(ctx context.Context, mobile, code string, ttl time.Duration) error
	SendEmailOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendReceipt(ctx context.Context, to string, data *ReceiptData) error
}

type notificationService struct {
	smsProvider sms.SMSProvider
	emailSender email.Sender
	appName     string
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

func NewNotificationService(
	smsProvider sms.SMSProvider,
	emailSender email.Sender,
	appName string,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		smsProvider: smsProvider,
		emailSender: emailSender,
		appName:     appName,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *notificationService) SendMobileOTP(ctx context.Context, mobile, code string, ttl time.Duration) error {
	_, err := s.smsProvider.SendSMS(ctx, &sms.SMSRequest{
		To:      mobile,
		Message: fmt.Sprintf("Your %s verification code is: %s. Valid for %d minutes.", s.appName, code, minutes(ttl)),
		Type:    sms.MessageTypeOTP,
	})
	if err != nil {
		s.metrics.NotificationFailed("sms")
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"provider": s.smsProvider.Name(),
			"mobile":   utils.MaskPhone(mobile),
		}).Error("Failed to send OTP SMS")
		return fmt.Errorf("failed to send otp sms: %w", err)
	}
	return nil
}

func (s *notificationService) SendEmailOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	err := s.emailSender.Send(ctx, &email.Message{
		To:       to,
		Subject:  fmt.Sprintf("Your %s login code", s.appName),
		TextBody: fmt.Sprintf("Your verification code is: %s\n\nIt expires in %d minutes.", code, minutes(ttl)),
		HTMLBody: fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p><p>It expires in %d minutes.</p>", code, minutes(ttl)),
	})
	if err != nil {
		s.metrics.NotificationFailed("email")
		s.logger.WithError(err).WithField("email", utils.MaskEmail(to)).Error("Failed to send OTP email")
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}

func (s *notificationService) SendReceipt(ctx context.Context, to string, data *ReceiptData) error {
	if data.AppName == "" {
		data.AppName = s.appName
	}
	html, err := RenderReceipt(data)
	if err != nil {
		return err
	}

	err = s.emailSender.Send(ctx, &email.Message{
		To:       to,
		ToName:   data.UserName,
		Subject:  "Receipt for " + data.CourseTitle,
		TextBody: receiptText(data),
		HTMLBody: html,
	})
	if err != nil {
		s.metrics.NotificationFailed("receipt")
		return fmt.Errorf("failed to send receipt: %w", err)
	}
	return nil
}

func minutes(d time.Duration) int {
	m := int(d / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
