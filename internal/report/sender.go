package report

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Sender delivers a rendered report.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// GmailSender sends mail through the Gmail API with OAuth2 credentials.
type GmailSender struct {
	credentialsPath string
	tokenPath       string
	from            string
}

// NewGmailSender creates a sender. credentialsPath is the OAuth client
// config from Google Cloud Console; tokenPath holds a previously issued
// token (the interactive consent flow is not part of the server).
func NewGmailSender(credentialsPath, tokenPath, from string) *GmailSender {
	return &GmailSender{
		credentialsPath: credentialsPath,
		tokenPath:       tokenPath,
		from:            from,
	}
}

// Send delivers one HTML email.
func (s *GmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	service, err := s.service(ctx)
	if err != nil {
		return err
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s",
		s.from, to, subject, htmlBody)
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}

	if _, err := service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (s *GmailSender) service(ctx context.Context) (*gmail.Service, error) {
	credBytes, err := os.ReadFile(s.credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(credBytes, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	token, err := tokenFromFile(s.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load token: %w", err)
	}

	client := oauthConfig.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return service, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// LogSender writes reports to the log instead of sending them. It stands
// in when Gmail credentials are not configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(htmlBody)).
		Msg("Report delivery disabled; logging instead")
	return nil
}
