package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProjectCurrencyConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProjectCurrencyConfig
		want error
	}{
		{
			name: "market source without manual rate",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: BRL,
				RateSource:            RateSourceMarket,
			},
		},
		{
			name: "manual source with positive rate",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: BRL,
				RateSource:            RateSourceManual,
				ManualRate:            decimal.RequireFromString("0.20"),
				HasManualRate:         true,
			},
		},
		{
			name: "unsupported consolidation currency",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: Currency("XYZ"),
				RateSource:            RateSourceMarket,
			},
			want: ErrUnsupportedCurrency,
		},
		{
			name: "manual source without rate",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: BRL,
				RateSource:            RateSourceManual,
			},
			want: ErrManualRateRequired,
		},
		{
			name: "zero manual rate rejected under market source",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: BRL,
				RateSource:            RateSourceMarket,
				ManualRate:            decimal.Zero,
				HasManualRate:         true,
			},
			want: ErrInvalidManualRate,
		},
		{
			name: "negative manual rate rejected",
			cfg: ProjectCurrencyConfig{
				ProjectID:             "proj-1",
				ConsolidationCurrency: BRL,
				RateSource:            RateSourceManual,
				ManualRate:            decimal.RequireFromString("-0.20"),
				HasManualRate:         true,
			},
			want: ErrInvalidManualRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
