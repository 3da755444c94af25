// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/models"
)

// dailyRequestLimit caps how many tasks one user may submit per UTC day.
const dailyRequestLimit = 1000

// usageCounterNamespace prefixes the per-user daily request counters in
// Redis.
const usageCounterNamespace = "usage:requests"

// Multiplier table kinds accepted by UpdateMultiplier.
const (
	MultiplierQuality = "quality"
	MultiplierSize    = "size"
)

// defaultQuality and defaultSize fill the optional quote fields.
const (
	defaultQuality = "medium"
	defaultSize    = "512x512"
)

// pricingService is the concrete implementation of [PricingService]. Rates
// live in memory behind a RWMutex; quoting is a pure table lookup and never
// touches storage.
type pricingService struct {
	usageRepository store.UsageRepository
	cache           *store.Cache

	mu           sync.RWMutex
	baseRates    map[models.ServiceType]map[string]decimal.Decimal
	quality      map[string]decimal.Decimal
	size         map[string]decimal.Decimal
	dailyCeiling int64

	logger *logger.Logger
}

// NewPricingService constructs a [PricingService] seeded with the default
// rate tables.
func NewPricingService(usageRepository store.UsageRepository, cache *store.Cache, logger *logger.Logger) PricingService {
	return &pricingService{
		usageRepository: usageRepository,
		cache:           cache,
		baseRates:       defaultBaseRates(),
		quality:         defaultQualityMultipliers(),
		size:            defaultSizeMultipliers(),
		dailyCeiling:    dailyRequestLimit,
		logger:          logger,
	}
}

// defaultBaseRates returns the built-in per-unit prices. Text models bill
// per token, image models per generated image, speech models per character
// of input, transcription per second of audio and embeddings per token.
func defaultBaseRates() map[models.ServiceType]map[string]decimal.Decimal {
	return map[models.ServiceType]map[string]decimal.Decimal{
		models.ServiceText2Text: {
			"gpt-4":          decimal.RequireFromString("0.0001"),
			"gpt-3.5-turbo":  decimal.RequireFromString("0.00002"),
			"claude-2":       decimal.RequireFromString("0.00008"),
			"claude-instant": decimal.RequireFromString("0.00004"),
		},
		models.ServiceText2Image: {
			"stable-diffusion-xl":   decimal.RequireFromString("0.02"),
			"stable-diffusion-v1-5": decimal.RequireFromString("0.01"),
		},
		models.ServiceText2Speech: {
			"eleven_multilingual_v2": decimal.RequireFromString("0.0003"),
			"eleven_monolingual_v1":  decimal.RequireFromString("0.0002"),
		},
		models.ServiceSpeech2Text: {
			"whisper-1": decimal.RequireFromString("0.0001"),
		},
		models.ServiceEmbedding: {
			"text-embedding-ada-002": decimal.RequireFromString("0.000001"),
		},
	}
}

func defaultQualityMultipliers() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"high":   decimal.RequireFromString("1.5"),
		"medium": decimal.NewFromInt(1),
		"low":    decimal.RequireFromString("0.8"),
	}
}

func defaultSizeMultipliers() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"256x256":   decimal.RequireFromString("0.8"),
		"512x512":   decimal.NewFromInt(1),
		"1024x1024": decimal.RequireFromString("1.5"),
	}
}

// Quote implements [PricingService].
func (p *pricingService) Quote(ctx context.Context, spec QuoteSpec) (models.CostEstimate, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	table, ok := p.baseRates[spec.Type]
	if !ok {
		return models.CostEstimate{}, fmt.Errorf("%w: %q", ErrUnknownServiceType, spec.Type)
	}

	rate, ok := table[spec.Model]
	if !ok {
		return models.CostEstimate{}, fmt.Errorf("%w: %q", ErrUnknownModel, spec.Model)
	}

	quality := spec.Quality
	if quality == "" {
		quality = defaultQuality
	}
	multiplier, ok := p.quality[quality]
	if !ok {
		return models.CostEstimate{}, fmt.Errorf("%w: %q", ErrUnknownQuality, spec.Quality)
	}

	// The size axis only exists for image generation.
	if spec.Type == models.ServiceText2Image {
		size := spec.Size
		if size == "" {
			size = defaultSize
		}
		sizeMultiplier, ok := p.size[size]
		if !ok {
			return models.CostEstimate{}, fmt.Errorf("%w: %q", ErrUnknownSize, spec.Size)
		}
		multiplier = multiplier.Mul(sizeMultiplier)
	}

	units := decimal.NewFromInt(spec.Units)
	return models.CostEstimate{
		Type:       spec.Type,
		Units:      spec.Units,
		UnitPrice:  rate,
		Multiplier: multiplier,
		Total:      rate.Mul(units).Mul(multiplier),
	}, nil
}

// UpdateRate implements [PricingService].
func (p *pricingService) UpdateRate(ctx context.Context, serviceType models.ServiceType, model string, rate decimal.Decimal) error {
	if !serviceType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownServiceType, serviceType)
	}
	if model == "" || !rate.IsPositive() {
		return ErrInvalidRate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	table, ok := p.baseRates[serviceType]
	if !ok {
		table = make(map[string]decimal.Decimal)
		p.baseRates[serviceType] = table
	}
	table[model] = rate

	logger.FromContext(ctx).Info().
		Str("type", string(serviceType)).
		Str("model", model).
		Str("rate", rate.String()).
		Msg("base rate updated")
	return nil
}

// UpdateMultiplier implements [PricingService].
func (p *pricingService) UpdateMultiplier(ctx context.Context, kind, key string, value decimal.Decimal) error {
	if key == "" || !value.IsPositive() {
		return ErrInvalidRate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch kind {
	case MultiplierQuality:
		p.quality[key] = value
	case MultiplierSize:
		p.size[key] = value
	default:
		return fmt.Errorf("%w: unknown multiplier kind %q", ErrInvalidDataProvided, kind)
	}

	logger.FromContext(ctx).Info().
		Str("kind", kind).
		Str("key", key).
		Str("value", value.String()).
		Msg("multiplier updated")
	return nil
}

// Rates implements [PricingService].
func (p *pricingService) Rates(ctx context.Context) PriceStructure {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rates := make(map[models.ServiceType]map[string]decimal.Decimal, len(p.baseRates))
	for serviceType, table := range p.baseRates {
		copied := make(map[string]decimal.Decimal, len(table))
		for model, rate := range table {
			copied[model] = rate
		}
		rates[serviceType] = copied
	}

	return PriceStructure{
		BaseRates:          rates,
		QualityMultipliers: copyMultipliers(p.quality),
		SizeMultipliers:    copyMultipliers(p.size),
	}
}

// CheckDailyLimit implements [PricingService]. The counter is a fixed
// window keyed by user and UTC day. When Redis is unreachable the check
// passes: losing the ceiling briefly beats rejecting every task.
func (p *pricingService) CheckDailyLimit(ctx context.Context, userID int64) error {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	key := fmt.Sprintf("%d:%s", userID, now.Format(time.DateOnly))
	window := time.Until(now.Truncate(24 * time.Hour).Add(24 * time.Hour))

	count, err := p.cache.IncrWithExpire(ctx, usageCounterNamespace, key, window)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("daily limit check degraded")
		return nil
	}

	if count > p.dailyCeiling {
		log.Warn().Int64("user_id", userID).Int64("count", count).Msg("daily request ceiling hit")
		return ErrDailyLimitExceeded
	}

	return nil
}

// RecordUsage implements [PricingService].
func (p *pricingService) RecordUsage(ctx context.Context, usage models.ServiceUsage) error {
	if err := p.usageRepository.RecordUsage(ctx, usage); err != nil {
		return fmt.Errorf("usage recording failed: %w", err)
	}
	return nil
}

// UsageSummary implements [PricingService].
func (p *pricingService) UsageSummary(ctx context.Context, userID int64, day time.Time) (models.UsageSummary, error) {
	summary, err := p.usageRepository.SummarizeUsageDay(ctx, userID, day)
	if err != nil {
		return models.UsageSummary{}, fmt.Errorf("usage summary failed: %w", err)
	}
	return summary, nil
}

func copyMultipliers(src map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
