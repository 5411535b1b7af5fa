package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"pobrify/internal/core"
	"pobrify/internal/plan"
	"pobrify/internal/ports"
)

// Well-known setting keys.
const (
	KeyGoal              = "goal"
	KeyAllocation        = "allocation"
	KeyRates             = "rates"
	KeyAdditionalSavings = "additionalSavings"
	KeyDailyTargets      = "dailyTargets"
)

// SettingsService reads and writes the JSON settings store. Typed readers
// never fail on bad data: absent or malformed values decode to defaults.
type SettingsService struct {
	store    ports.SettingsStore
	defaults plan.Settings
	rates    plan.Rates
}

func NewSettingsService(store ports.SettingsStore, defaults plan.Settings, rates plan.Rates) *SettingsService {
	return &SettingsService{store: store, defaults: defaults.Normalize(), rates: rates.Normalize()}
}

// Get returns the raw value for key, or nil when unset.
func (s *SettingsService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty setting key", ErrInvalidInput)
	}
	return s.store.GetSetting(ctx, key)
}

// Put stores data under key. Values for well-known keys must decode into
// their typed form. The goal is refused here; it is written through
// GoalService.UpdateGoal, which keeps the current amount.
func (s *SettingsService) Put(ctx context.Context, key string, data json.RawMessage) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty setting key", ErrInvalidInput)
	}
	if key == KeyGoal {
		return fmt.Errorf("%w: setting %q is updated through the goal service", ErrInvalidInput, key)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: setting %q is not valid JSON", ErrInvalidInput, key)
	}
	if err := validateKnown(key, data); err != nil {
		return fmt.Errorf("%w: setting %q: %v", ErrInvalidInput, key, err)
	}
	if err := s.store.PutSetting(ctx, key, data); err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

func validateKnown(key string, data json.RawMessage) error {
	var target any
	switch key {
	case KeyAllocation:
		target = &plan.Settings{}
	case KeyRates:
		target = &plan.Rates{}
	case KeyAdditionalSavings:
		target = new(core.Money)
	default:
		return nil
	}
	return json.Unmarshal(data, target)
}

// Allocation returns the allocator settings, stored values layered over
// the configured defaults.
func (s *SettingsService) Allocation(ctx context.Context) (plan.Settings, error) {
	out, err := decodeSetting(ctx, s.store, KeyAllocation, s.defaults)
	return out.Normalize(), err
}

func (s *SettingsService) Rates(ctx context.Context) (plan.Rates, error) {
	out, err := decodeSetting(ctx, s.store, KeyRates, s.rates)
	return out.Normalize(), err
}

func (s *SettingsService) Goal(ctx context.Context) (core.GoalState, error) {
	g, err := decodeSetting(ctx, s.store, KeyGoal, core.GoalState{})
	return g.Clamp(), err
}

// PutGoal stores g with its current amount clamped to the target.
func (s *SettingsService) PutGoal(ctx context.Context, g core.GoalState) (core.GoalState, error) {
	if err := g.Validate(); err != nil {
		return core.GoalState{}, err
	}
	g = g.Clamp()
	data, err := json.Marshal(g)
	if err != nil {
		return core.GoalState{}, fmt.Errorf("encode goal: %w", err)
	}
	if err := s.store.PutSetting(ctx, KeyGoal, data); err != nil {
		return core.GoalState{}, fmt.Errorf("put goal: %w", err)
	}
	return g, nil
}

func (s *SettingsService) AdditionalSavings(ctx context.Context) (core.Money, error) {
	m, err := decodeSetting(ctx, s.store, KeyAdditionalSavings, core.Money(0))
	return m.NonNegative(), err
}

// decodeSetting layers the stored value for key over base. Store errors
// are returned with base; malformed values are logged and yield base.
func decodeSetting[T any](ctx context.Context, store ports.SettingsStore, key string, base T) (T, error) {
	raw, err := store.GetSetting(ctx, key)
	if err != nil {
		return base, fmt.Errorf("get setting %q: %w", key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return base, nil
	}
	out := base
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.WarnContext(ctx, "Ignoring malformed setting", "key", key, "error", err)
		return base, nil
	}
	return out, nil
}
