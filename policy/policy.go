// Package policy implements the monetary policy of the hybrid chain: total
// supply accounting, the time weighted PoRW minting reward and the windowed
// difficulty retarget. All calculations are pure functions of the parameter
// set and the ledger snapshot, so independent nodes reproduce the same values.
package policy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/types"
)

const secondsPerYear = 365.25 * 24 * 3600

var ErrInvalidParams = errors.New("invalid policy parameters")

// Params are the monetary policy tunables. The struct is immutable once
// constructed and passed explicitly to every calculation.
type Params struct {
	// GenesisReward is minted by the first PoRW block, when total supply is zero.
	GenesisReward float64 `yaml:"genesisReward"`
	// MinReward is the floor of any PoRW reward.
	MinReward float64 `yaml:"minReward"`
	// InflationRate is the annualized target supply growth.
	InflationRate float64 `yaml:"inflationRate"`
	// TimeConstant shapes the exponential reward adjustment; the effective
	// block interval is capped at ten times this value.
	TimeConstant time.Duration `yaml:"timeConstant"`
	// TargetBlockTime is the PoRW production interval the retarget steers towards.
	TargetBlockTime time.Duration `yaml:"targetBlockTime"`
	// DifficultyWindow is the number of recent PoRW blocks the retarget averages over.
	DifficultyWindow int `yaml:"difficultyWindow"`
	// InitialDifficulty seeds the chain before the window fills up.
	InitialDifficulty float64 `yaml:"initialDifficulty"`
	MinDifficulty     float64 `yaml:"minDifficulty"`
	MaxDifficulty     float64 `yaml:"maxDifficulty"`
	// MaxAdjustment bounds a single retarget step to [1/MaxAdjustment, MaxAdjustment].
	MaxAdjustment float64 `yaml:"maxAdjustment"`
}

// rewardBurstCap bounds the exponential adjustment applied on top of the
// inflation target.
const rewardBurstCap = 3.0

// DefaultParams returns the production parameter set.
func DefaultParams() Params {
	return Params{
		GenesisReward:     50.0,
		MinReward:         1.0,
		InflationRate:     0.02,
		TimeConstant:      10 * time.Minute,
		TargetBlockTime:   10 * time.Minute,
		DifficultyWindow:  10,
		InitialDifficulty: 1.0,
		MinDifficulty:     1.0,
		MaxDifficulty:     1000.0,
		MaxAdjustment:     4.0,
	}
}

// Verify checks the parameter set for internal consistency.
func (p Params) Verify() error {
	if p.GenesisReward <= 0 {
		return fmt.Errorf("%w: genesis reward must be positive", ErrInvalidParams)
	}
	if p.MinReward <= 0 || p.MinReward > p.GenesisReward {
		return fmt.Errorf("%w: min reward must be in (0, genesis reward]", ErrInvalidParams)
	}
	if p.InflationRate <= 0 {
		return fmt.Errorf("%w: inflation rate must be positive", ErrInvalidParams)
	}
	if p.TimeConstant <= 0 || p.TargetBlockTime <= 0 {
		return fmt.Errorf("%w: time constant and target block time must be positive", ErrInvalidParams)
	}
	if p.DifficultyWindow < 2 {
		return fmt.Errorf("%w: difficulty window must hold at least two blocks", ErrInvalidParams)
	}
	if p.MinDifficulty <= 0 || p.MaxDifficulty < p.MinDifficulty {
		return fmt.Errorf("%w: difficulty bounds are inverted", ErrInvalidParams)
	}
	if p.InitialDifficulty < p.MinDifficulty || p.InitialDifficulty > p.MaxDifficulty {
		return fmt.Errorf("%w: initial difficulty outside bounds", ErrInvalidParams)
	}
	if p.MaxAdjustment <= 1 {
		return fmt.Errorf("%w: max adjustment must exceed one", ErrInvalidParams)
	}
	return nil
}

// TotalSupply is the sum of minted amounts over all accepted PoRW blocks.
func TotalSupply(lg ledger.Reader) (float64, error) {
	blocks, err := lg.RecentBlocksByType(types.BlockTypePoRW, 0)
	if err != nil {
		return 0, fmt.Errorf("supply scan failed, %w", err)
	}
	var supply float64
	for _, b := range blocks {
		supply += b.(*types.PoRWBlock).MintedAmount
	}
	return supply, nil
}

// Reward calculates the PoRW minting reward for a block produced sinceLast
// after the previous PoRW block. The reward tracks the annualized inflation
// target on current supply, boosted for long gaps and clamped to
// [MinReward, 10*GenesisReward].
func (p Params) Reward(lg ledger.Reader, sinceLast time.Duration) (float64, error) {
	supply, err := TotalSupply(lg)
	if err != nil {
		return 0, err
	}
	if sinceLast < 0 {
		sinceLast = 0
	}
	effective := sinceLast
	if maxGap := 10 * p.TimeConstant; effective > maxGap {
		effective = maxGap
	}
	var target float64
	if supply == 0 {
		target = p.GenesisReward
	} else {
		yearFraction := effective.Seconds() / secondsPerYear
		target = supply * p.InflationRate * yearFraction
	}
	adjustment := math.Min(math.Exp(effective.Seconds()/p.TimeConstant.Seconds()), rewardBurstCap)
	return clamp(target*adjustment, p.MinReward, 10*p.GenesisReward), nil
}

// Difficulty calculates the required difficulty for the next PoRW block from
// the mean production interval over the retarget window. The square root damps
// the correction and a single step never moves more than MaxAdjustment in
// either direction.
func (p Params) Difficulty(lg ledger.Reader) (float64, error) {
	recent, err := lg.RecentBlocksByType(types.BlockTypePoRW, p.DifficultyWindow)
	if err != nil {
		return 0, fmt.Errorf("difficulty window scan failed, %w", err)
	}
	if len(recent) < 2 {
		return p.InitialDifficulty, nil
	}
	// recent is newest first
	var total time.Duration
	for i := 0; i < len(recent)-1; i++ {
		total += recent[i].Header().Timestamp.Sub(recent[i+1].Header().Timestamp)
	}
	meanTime := total / time.Duration(len(recent)-1)
	if meanTime < time.Second {
		meanTime = time.Second
	}
	ratio := p.TargetBlockTime.Seconds() / meanTime.Seconds()
	adjustment := clamp(math.Sqrt(ratio), 1/p.MaxAdjustment, p.MaxAdjustment)
	current := p.CurrentDifficulty(recent[0])
	return clamp(current*adjustment, p.MinDifficulty, p.MaxDifficulty), nil
}

// CurrentDifficulty reads the difficulty from the most recent PoRW block's
// proof, falling back to the initial difficulty.
func (p Params) CurrentDifficulty(latest types.Block) float64 {
	if blk, ok := latest.(*types.PoRWBlock); ok && blk.Proof != nil && blk.Proof.Difficulty > 0 {
		return blk.Proof.Difficulty
	}
	return p.InitialDifficulty
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
