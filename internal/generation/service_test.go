package generation

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/telemetry"
)

type fakeProvider struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32

	gotPrompt string
	gotParams Params
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	f.calls.Add(1)
	f.gotPrompt = prompt
	f.gotParams = p
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func testConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Provider:          "fake",
		Timeout:           time.Second,
		MaxOutputLength:   500,
		Temperature:       0.8,
		RepetitionPenalty: 1.1,
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

var techReq = Request{Niche: "Technology", ContentType: "Reel", Tone: "Casual", Length: "30s"}

func assertFromFallback(t *testing.T, niche string, r Result) {
	t.Helper()
	assert.Contains(t, HooksFor(niche), r.Hook)
	assert.Contains(t, Bodies(), r.Body)
	assert.Contains(t, CTAs(), r.CTA)
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	p := &fakeProvider{text: "HOOK: h\nBODY: b\nCTA: c"}
	svc := NewService(p, testConfig())

	before := counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourceRemote))
	got := svc.Generate(context.Background(), techReq)

	assert.Equal(t, Result{Hook: "h", Body: "b", CTA: "c"}, got)
	assert.Equal(t, Params{MaxOutputLength: 500, Temperature: 0.8, RepetitionPenalty: 1.1}, p.gotParams)
	assert.Contains(t, p.gotPrompt, "Technology niche")
	assert.Equal(t, before+1, counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourceRemote)))
}

func TestGenerate_PartialFallsBackPerField(t *testing.T) {
	p := &fakeProvider{text: "HOOK: remote hook"}
	svc := NewService(p, testConfig())

	before := counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourcePartial))
	got := svc.Generate(context.Background(), techReq)

	assert.Equal(t, "remote hook", got.Hook)
	assert.Contains(t, Bodies(), got.Body)
	assert.Contains(t, CTAs(), got.CTA)
	assert.Equal(t, before+1, counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourcePartial)))
}

func TestGenerate_ProviderErrorFallsBack(t *testing.T) {
	p := &fakeProvider{err: errors.New("503 model loading")}
	svc := NewService(p, testConfig())

	errsBefore := counterValue(telemetry.GenerationProviderErrorsTotal.WithLabelValues("fake"))
	fbBefore := counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourceFallback))

	got := svc.Generate(context.Background(), techReq)

	assertFromFallback(t, "Technology", got)
	assert.Equal(t, errsBefore+1, counterValue(telemetry.GenerationProviderErrorsTotal.WithLabelValues("fake")))
	assert.Equal(t, fbBefore+1, counterValue(telemetry.ScriptGenerationsTotal.WithLabelValues(telemetry.SourceFallback)))
}

func TestGenerate_TimeoutFallsBack(t *testing.T) {
	p := &fakeProvider{text: "HOOK: late\nBODY: late\nCTA: late", delay: time.Second}
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	svc := NewService(p, cfg)

	start := time.Now()
	got := svc.Generate(context.Background(), techReq)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assertFromFallback(t, "Technology", got)
}

func TestGenerate_NoProvider(t *testing.T) {
	svc := NewService(nil, testConfig())
	assert.Equal(t, config.ProviderNone, svc.ProviderName())

	for _, niche := range []string{"Fitness & Health", "Technology", "Food & Cooking", "Gardening"} {
		req := techReq
		req.Niche = niche
		got := svc.Generate(context.Background(), req)
		assertFromFallback(t, niche, got)
	}
}

func TestGenerate_UnparseableOutputIsFallback(t *testing.T) {
	p := &fakeProvider{text: "I am a chatbot and I like turtles."}
	svc := NewService(p, testConfig(), WithRandom(func(int) int { return 0 }))

	got := svc.Generate(context.Background(), techReq)

	assert.Equal(t, Result{Hook: HooksFor("Technology")[0], Body: Bodies()[0], CTA: CTAs()[0]}, got)
}

func TestGenerate_AlwaysNonEmpty(t *testing.T) {
	providers := []Provider{
		nil,
		&fakeProvider{err: context.DeadlineExceeded},
		&fakeProvider{text: ""},
		&fakeProvider{text: "HOOK: \nBODY: \nCTA: "},
	}
	for _, p := range providers {
		svc := NewService(p, testConfig())
		got := svc.Generate(context.Background(), techReq)
		require.NotEmpty(t, got.Hook)
		require.NotEmpty(t, got.Body)
		require.NotEmpty(t, got.CTA)
	}
}

func TestFallback_HooksByNiche(t *testing.T) {
	assert.Len(t, HooksFor("Fitness & Health"), 4)
	assert.Len(t, HooksFor("Technology"), 4)
	assert.Len(t, HooksFor("Food & Cooking"), 4)
	assert.Equal(t, genericHooks, HooksFor("Underwater Basket Weaving"))
	assert.Len(t, Bodies(), 3)
	assert.Len(t, CTAs(), 3)
}

func TestFallback_UsesEveryEntry(t *testing.T) {
	var n int
	f := NewFallback(func(k int) int {
		defer func() { n++ }()
		return n % k
	})

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		seen[f.Hook("Food & Cooking")] = true
	}
	for _, h := range HooksFor("Food & Cooking") {
		assert.True(t, seen[h], "hook never picked: %q", h)
	}
	assert.True(t, slices.Contains(Bodies(), f.Body()))
	assert.True(t, slices.Contains(CTAs(), f.CTA()))
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		p, err := NewProvider(ctx, config.GenerationConfig{Provider: config.ProviderNone, APIKey: "k"})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("missing key", func(t *testing.T) {
		p, err := NewProvider(ctx, config.GenerationConfig{Provider: config.ProviderHuggingFace})
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("huggingface", func(t *testing.T) {
		p, err := NewProvider(ctx, config.GenerationConfig{Provider: config.ProviderHuggingFace, APIKey: "hf_x", Timeout: time.Second})
		require.NoError(t, err)
		hf, ok := p.(*HuggingFaceClient)
		require.True(t, ok)
		assert.Equal(t, DefaultHuggingFaceEndpoint, hf.Endpoint)
	})

	t.Run("gemini", func(t *testing.T) {
		p, err := NewProvider(ctx, config.GenerationConfig{Provider: config.ProviderGemini, APIKey: "g_x", Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, "gemini", p.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewProvider(ctx, config.GenerationConfig{Provider: "openai", APIKey: "k"})
		assert.Error(t, err)
	})
}
