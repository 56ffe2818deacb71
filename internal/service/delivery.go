package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// DeliverySink hands an issued code to an out-of-band transport. The OTP
// core's responsibility ends here; actual delivery is a collaborator.
type DeliverySink interface {
	Deliver(ctx context.Context, email, purpose, code string, expiresAt time.Time) error
}

// LogDeliverySink writes the code to the log, simulating delivery. This is
// the reference behavior used in development.
type LogDeliverySink struct{}

func (s *LogDeliverySink) Deliver(ctx context.Context, email, purpose, code string, expiresAt time.Time) error {
	log.Printf("[OtpDelivery] OTP for %s (%s): %s", email, purpose, code)
	fmt.Println("=== OTP DELIVERY SIMULATION ===")
	fmt.Printf("To: %s\n", email)
	fmt.Printf("Purpose: %s\n", purpose)
	fmt.Printf("OTP Code: %s\n", code)
	fmt.Printf("Expires at: %s UTC\n", expiresAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Println("===============================")
	return nil
}

// ResendDeliverySink emails codes via the Resend REST API.
type ResendDeliverySink struct {
	from   string
	client *resend.Client
}

// NewResendDeliverySink creates an email delivery sink.
func NewResendDeliverySink(apiKey, from string) (*ResendDeliverySink, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendDeliverySink{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendDeliverySink) Deliver(ctx context.Context, email, purpose, code string, expiresAt time.Time) error {
	if email == "" || code == "" {
		return fmt.Errorf("email and code are required")
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email},
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
		Html:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes),
	}

	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("otp:%s:%s:%d", email, purpose, expiresAt.Unix()),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
