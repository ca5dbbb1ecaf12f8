package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/telemetry"
)

// Service generates scripts. The zero provider is valid and means every
// section comes from the fallback lists.
type Service struct {
	provider Provider
	params   Params
	timeout  time.Duration
	fallback *Fallback
}

// Option configures a Service.
type Option func(*Service)

// WithRandom injects the random source used for fallback picks.
func WithRandom(intN func(n int) int) Option {
	return func(s *Service) { s.fallback = NewFallback(intN) }
}

// NewService creates a generation service. provider may be nil.
func NewService(provider Provider, cfg config.GenerationConfig, opts ...Option) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	s := &Service{
		provider: provider,
		params: Params{
			MaxOutputLength:   cfg.MaxOutputLength,
			Temperature:       cfg.Temperature,
			RepetitionPenalty: cfg.RepetitionPenalty,
		},
		timeout:  timeout,
		fallback: NewFallback(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProviderName reports the configured provider, "none" when running on
// fallback content only.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return config.ProviderNone
	}
	return s.provider.Name()
}

// Generate never fails: provider errors and timeouts are logged and every
// missing section is filled independently from the fallback lists.
func (s *Service) Generate(ctx context.Context, req Request) Result {
	var parsed Result
	providerOK := false

	if s.provider != nil {
		parsed, providerOK = s.callProvider(ctx, req)
	}

	out := parsed
	filled := 0
	if out.Hook == "" {
		out.Hook = s.fallback.Hook(req.Niche)
		filled++
	}
	if out.Body == "" {
		out.Body = s.fallback.Body()
		filled++
	}
	if out.CTA == "" {
		out.CTA = s.fallback.CTA()
		filled++
	}

	source := telemetry.SourceRemote
	switch {
	case !providerOK || filled == 3:
		source = telemetry.SourceFallback
	case filled > 0:
		source = telemetry.SourcePartial
	}
	telemetry.ScriptGenerationsTotal.WithLabelValues(source).Inc()

	return out
}

func (s *Service) callProvider(ctx context.Context, req Request) (Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name := s.provider.Name()
	start := time.Now()
	text, err := s.provider.Complete(ctx, BuildPrompt(req), s.params)
	telemetry.GenerationProviderDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.GenerationProviderErrorsTotal.WithLabelValues(name).Inc()
		slog.WarnContext(ctx, "generation provider failed, using fallback content",
			"provider", name,
			"niche", req.Niche,
			"error", err,
		)
		return Result{}, false
	}

	parsed := Parse(text)
	if parsed.Hook == "" || parsed.Body == "" || parsed.CTA == "" {
		slog.DebugContext(ctx, "generation provider output incomplete",
			"provider", name,
			"has_hook", parsed.Hook != "",
			"has_body", parsed.Body != "",
			"has_cta", parsed.CTA != "",
		)
	}
	return parsed, true
}
