package consensus

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mwillis775/PoRW-sub001/policy"
	"github.com/mwillis775/PoRW-sub001/types"
)

// Params is the immutable consensus configuration. It is passed explicitly to
// every validator instead of living in package level state, so concurrent
// validators with different parameter sets cannot interfere.
type Params struct {
	Policy policy.Params     `yaml:"policy"`
	Fees   types.FeeSchedule `yaml:"fees"`
	// MaxClockSkew is how far into the future a block timestamp may run ahead
	// of the local clock.
	MaxClockSkew time.Duration `yaml:"maxClockSkew"`
	// QuorumThreshold is the fraction of listed participants whose attestation
	// a storage proof needs.
	QuorumThreshold       float64 `yaml:"quorumThreshold"`
	MinQuorumParticipants int     `yaml:"minQuorumParticipants"`
	// MinFeeRatio is the fraction of the standard fee an explicit fee must reach.
	MinFeeRatio   float64 `yaml:"minFeeRatio"`
	MinWorkRefLen int     `yaml:"minWorkRefLen"`
	// DifficultyTolerance is the relative deviation allowed between the proof
	// difficulty and the retarget expectation.
	DifficultyTolerance float64 `yaml:"difficultyTolerance"`
	// FloatTolerance absorbs rounding differences in monetary comparisons.
	FloatTolerance float64 `yaml:"floatTolerance"`
}

// DefaultParams returns the production consensus configuration.
func DefaultParams() Params {
	return Params{
		Policy: policy.DefaultParams(),
		Fees: types.FeeSchedule{
			Rate:   0.01,
			MinFee: 0.001,
			MaxFee: 10.0,
		},
		MaxClockSkew:          2 * time.Minute,
		QuorumThreshold:       2.0 / 3.0,
		MinQuorumParticipants: 3,
		MinFeeRatio:           0.5,
		MinWorkRefLen:         8,
		DifficultyTolerance:   0.05,
		FloatTolerance:        1e-6,
	}
}

// Verify checks the configuration for internal consistency.
func (p Params) Verify() error {
	if err := p.Policy.Verify(); err != nil {
		return err
	}
	if p.Fees.Rate <= 0 || p.Fees.MinFee < 0 || p.Fees.MaxFee < p.Fees.MinFee {
		return fmt.Errorf("invalid fee schedule")
	}
	if p.MaxClockSkew < 0 {
		return fmt.Errorf("max clock skew must not be negative")
	}
	if p.QuorumThreshold <= 0 || p.QuorumThreshold > 1 {
		return fmt.Errorf("quorum threshold must be in (0, 1]")
	}
	if p.MinQuorumParticipants < 1 {
		return fmt.Errorf("minimum quorum size must be positive")
	}
	if p.MinFeeRatio < 0 || p.MinFeeRatio > 1 {
		return fmt.Errorf("minimum fee ratio must be in [0, 1]")
	}
	if p.MinWorkRefLen < 1 {
		return fmt.Errorf("minimum work reference length must be positive")
	}
	if p.DifficultyTolerance < 0 || p.DifficultyTolerance >= 1 {
		return fmt.Errorf("difficulty tolerance must be in [0, 1)")
	}
	if p.FloatTolerance <= 0 {
		return fmt.Errorf("float tolerance must be positive")
	}
	return nil
}

// LoadParams reads a YAML parameter file layered over the defaults.
func LoadParams(fileName string) (Params, error) {
	params := DefaultParams()
	data, err := os.ReadFile(filepath.Clean(fileName))
	if err != nil {
		return params, fmt.Errorf("failed to read params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to unmarshal params file: %w", err)
	}
	if err := params.Verify(); err != nil {
		return params, err
	}
	return params, nil
}
