package ai

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds one provider round trip during validation.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator checks provider settings by building the adapter and
// pinging it, so bad credentials surface when settings are saved rather
// than on the first question.
type ConfigValidator struct {
	timeout time.Duration
}

// ValidatorOption configures a ConfigValidator.
type ValidatorOption func(*ConfigValidator)

// WithPingTimeout overrides DefaultPingTimeout. Non-positive values are ignored.
func WithPingTimeout(d time.Duration) ValidatorOption {
	return func(v *ConfigValidator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewConfigValidator creates a validator.
func NewConfigValidator(opts ...ValidatorOption) *ConfigValidator {
	v := &ConfigValidator{timeout: DefaultPingTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmbedding pings the embedding provider. Unset providers pass.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	defer svc.Close()
	return asProviderError(string(settings.Provider), svc.Ping(ctx))
}

// ValidateLLM pings the LLM provider. Unset providers pass.
func (v *ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	svc, err := CreateLLMService(ctx, settings, v.timeout)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()
	return asProviderError(string(settings.Provider), svc.Ping(ctx))
}

// asProviderError keeps provider errors intact and wraps anything else.
func asProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return domain.NewProviderError(provider, "ping", err)
}
