package gateway

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"taleloom/internal/tale"
)

// SESSender delivers verification codes by email via Amazon SESv2.
// When no from-address is configured the sender is disabled and Send
// becomes a logged no-op, so local setups work without AWS credentials.
type SESSender struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	logger    tale.Logger
}

// NewSESSender creates a SES-backed code sender.
func NewSESSender(ctx context.Context, region, fromEmail, fromName string, logger tale.Logger) (*SESSender, error) {
	if fromEmail == "" {
		logger.Warn("ses sender disabled: from_email not configured")
		return &SESSender{enabled: false, logger: logger}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("ses sender enabled", "from", fromEmail, "region", region)
	return &SESSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}, nil
}

var _ tale.CodeSender = (*SESSender)(nil)

func (s *SESSender) Send(ctx context.Context, destination, code string) error {
	if !s.enabled {
		s.logger.Info("skipping code email (ses disabled)", "destination", destination)
		return nil
	}

	subject := "Your Taleloom verification code"
	textBody := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
	htmlBody := fmt.Sprintf(`<p>Your verification code is:</p><p style="font-size:28px;letter-spacing:4px;"><strong>%s</strong></p><p>It expires in 10 minutes.</p>`, code)

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{destination},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(textBody)},
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending code email: %w", err)
	}

	s.logger.Info("code email sent", "destination", destination)
	return nil
}
