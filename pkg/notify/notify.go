// Package notify delivers one-time codes and transactional messages by email
// (SES v2) and SMS (SNS).
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog/log"
)

// EmailSender sends a plain text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a text message to an E.164 phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESSender sends email through Amazon SES v2.
type SESSender struct {
	api  sesAPI
	from string
}

// NewSESSender creates an SESSender from an SDK config.
func NewSESSender(cfg aws.Config, from string) *SESSender {
	return &SESSender{api: sesv2.NewFromConfig(cfg), from: from}
}

// SendEmail implements EmailSender.
func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &sestypes.Destination{ToAddresses: []string{to}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// SNSSender sends SMS through Amazon SNS direct publish.
type SNSSender struct {
	api      snsAPI
	senderID string
}

// NewSNSSender creates an SNSSender from an SDK config.
func NewSNSSender(cfg aws.Config, senderID string) *SNSSender {
	return &SNSSender{api: sns.NewFromConfig(cfg), senderID: senderID}
}

// SendSMS implements SMSSender.
func (s *SNSSender) SendSMS(ctx context.Context, phone, message string) error {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType: aws.String("String"), StringValue: aws.String(s.senderID),
		}
	}
	_, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// LogSender only logs messages. It stands in when no provider is configured.
type LogSender struct{}

// SendEmail implements EmailSender.
func (LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	log.Warn().Str("to", to).Str("subject", subject).Msg("Email provider not configured - message dropped")
	return nil
}

// SendSMS implements SMSSender.
func (LogSender) SendSMS(_ context.Context, phone, _ string) error {
	log.Warn().Str("phone", phone).Msg("SMS provider not configured - message dropped")
	return nil
}
