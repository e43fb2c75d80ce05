package notify

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog"
)

// postmarkClient is the subset of *postmark.Client used for delivery.
type postmarkClient interface {
	SendEmail(email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers messages through the Postmark API.
type PostmarkSender struct {
	client postmarkClient
	from   string
	logger zerolog.Logger
}

// NewPostmarkSender creates a sender using a Postmark server token.
func NewPostmarkSender(serverToken, from string, logger zerolog.Logger) *PostmarkSender {
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
		logger: logger.With().Str("component", "postmark_sender").Logger(),
	}
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		Tag:      string(msg.Kind),
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark rejected email: %d %s", resp.ErrorCode, resp.Message)
	}

	s.logger.Debug().
		Str("kind", string(msg.Kind)).
		Str("message_id", resp.MessageID).
		Msg("email sent")

	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a sender for development environments.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info().
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.HTMLBody)).
		Msg("notification would be sent")
	return nil
}
