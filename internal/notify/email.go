// Package notify delivers operator email for events that must not rely on
// the message bus, such as escalations whose routing failed.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Email is one outbound message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers an email through a provider.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers email through AWS SES.
type SESSender struct {
	api      sesAPI
	from     string
	fromName string
}

// NewSESSender creates an SES-backed sender.
func NewSESSender(api sesAPI, from, fromName string) *SESSender {
	if api == nil {
		panic("notify: ses client cannot be nil")
	}
	return &SESSender{api: api, from: from, fromName: fromName}
}

func (s *SESSender) Send(ctx context.Context, email Email) error {
	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}

	_, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{email.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(email.Subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(email.Body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses send: %w", err)
	}
	return nil
}

// SendGridSender delivers email through SendGrid.
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender creates a SendGrid-backed sender.
func NewSendGridSender(apiKey, from, fromName string) *SendGridSender {
	if apiKey == "" {
		panic("notify: sendgrid api key cannot be empty")
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (s *SendGridSender) Send(_ context.Context, email Email) error {
	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		email.Subject,
		mail.NewEmail("", email.To),
		email.Body,
		"",
	)
	resp, err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

var _ EmailSender = (*SESSender)(nil)
var _ EmailSender = (*SendGridSender)(nil)
