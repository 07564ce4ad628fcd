package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"newsletter-agent/config"
	"newsletter-agent/logging"
)

// statusCodePattern matches a status only where the message names one, as in
// "status code: 429" or "Error 503", so ports and ids are not taken for it.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:status(?:[ _]?code)?|code|error|http(?:/\d(?:\.\d)?)?)\s*[:=]?\s*([45]\d\d)\b`)

// retryModel retries Generate and the opening of Stream when the provider
// answers with one of the configured HTTP status codes.
type retryModel struct {
	inner  model.ToolCallingChatModel
	cfg    config.RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps cm with exponential backoff. Attempts below one are
// treated as one.
func WithRetry(cm model.ToolCallingChatModel, cfg config.RetryConfig, logger *zap.Logger) model.ToolCallingChatModel {
	return &retryModel{inner: cm, cfg: cfg, logger: logging.OrNop(logger), sleep: sleepContext}
}

func (m *retryModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var out *schema.Message
	err := m.do(ctx, "generate", func() error {
		var err error
		out, err = m.inner.Generate(ctx, input, opts...)
		return err
	})
	return out, err
}

func (m *retryModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var out *schema.StreamReader[*schema.Message]
	err := m.do(ctx, "stream", func() error {
		var err error
		out, err = m.inner.Stream(ctx, input, opts...)
		return err
	})
	return out, err
}

func (m *retryModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	inner, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &retryModel{inner: inner, cfg: m.cfg, logger: m.logger, sleep: m.sleep}, nil
}

func (m *retryModel) do(ctx context.Context, op string, call func() error) error {
	attempts := max(m.cfg.Attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = call()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		code, retryable := m.retryable(err)
		if !retryable || attempt == attempts {
			break
		}

		delay := m.delay(attempt)
		m.logger.Warn("model call failed, retrying",
			zap.String("op", op),
			zap.Int("status", code),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if serr := m.sleep(ctx, delay); serr != nil {
			return fmt.Errorf("%w (retry aborted: %v)", err, serr)
		}
	}
	return err
}

// delay is InitialDelay * ExpBase^(attempt-1), capped by MaxDelay.
func (m *retryModel) delay(attempt int) time.Duration {
	base := m.cfg.ExpBase
	if base < 1 {
		base = 1
	}
	d := float64(m.cfg.InitialDelay) * math.Pow(base, float64(attempt-1))
	if m.cfg.MaxDelay > 0 && d > float64(m.cfg.MaxDelay) {
		return m.cfg.MaxDelay
	}
	return time.Duration(d)
}

func (m *retryModel) retryable(err error) (int, bool) {
	code := StatusCode(err)
	if code == 0 {
		return 0, false
	}
	for _, c := range m.cfg.StatusCodes {
		if c == code {
			return code, true
		}
	}
	return code, false
}

// StatusCode extracts the HTTP status of a provider error, or 0 when none
// is recognisable.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}

	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
