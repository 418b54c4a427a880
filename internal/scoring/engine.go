// Package scoring turns raw market stats into a bounded heuristic score
// and a buy/sell/neutral classification. Sub-scores whose inputs are
// missing stay nil and their weight is redistributed over the rest.
package scoring

import (
	"fmt"

	"pumpwatch/internal/domain"
)

// Sub-score weights. Renormalized over the sub-scores actually present.
const (
	weightActivity     = 0.25
	weightMomentum     = 0.25
	weightHolders      = 0.20
	weightLiquidity    = 0.15
	weightBondingCurve = 0.15
)

// Default classification thresholds.
const (
	DefaultBuyThreshold  = 70.0
	DefaultSellThreshold = 30.0
)

// Options configures an Engine.
type Options struct {
	// BuyThreshold is the minimum total score for a buy candidate.
	// 0 means DefaultBuyThreshold.
	BuyThreshold float64
	// SellThreshold is the maximum total score for a sell candidate.
	// 0 means DefaultSellThreshold.
	SellThreshold float64
}

// Engine computes scores. Safe for concurrent use.
type Engine struct {
	buyThreshold  float64
	sellThreshold float64
}

// NewEngine creates a scoring engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		buyThreshold:  opts.BuyThreshold,
		sellThreshold: opts.SellThreshold,
	}
	if e.buyThreshold == 0 {
		e.buyThreshold = DefaultBuyThreshold
	}
	if e.sellThreshold == 0 {
		e.sellThreshold = DefaultSellThreshold
	}
	return e
}

// Score computes the weighted breakdown for a mint's market stats.
func (e *Engine) Score(stats *domain.MarketStats) *domain.ScoreBreakdown {
	breakdown := &domain.ScoreBreakdown{}

	activity := activityScore(stats)
	breakdown.Activity = &activity

	if len(stats.RecentPrices) >= 2 {
		momentum := momentumScore(stats.RecentPrices)
		breakdown.Momentum = &momentum
	}
	if stats.TopHolderConcentration != nil {
		holders := holdersScore(*stats.TopHolderConcentration)
		breakdown.Holders = &holders
	}
	if stats.PoolBalance != nil {
		liquidity := liquidityScore(*stats.PoolBalance)
		breakdown.Liquidity = &liquidity
	}
	if stats.BondingCurveProgress != nil {
		curve := bondingCurveScore(*stats.BondingCurveProgress)
		breakdown.BondingCurve = &curve
	}

	breakdown.Total = weightedTotal(breakdown)
	return breakdown
}

// Classify maps a total score to a trade classification.
func (e *Engine) Classify(total float64) domain.Classification {
	switch {
	case total >= e.buyThreshold:
		return domain.ClassBuyCandidate
	case total <= e.sellThreshold:
		return domain.ClassSellCandidate
	default:
		return domain.ClassNeutral
	}
}

// Reason builds a short human-readable explanation for a classification.
func (e *Engine) Reason(breakdown *domain.ScoreBreakdown, class domain.Classification) string {
	switch class {
	case domain.ClassBuyCandidate:
		return fmt.Sprintf("score %.1f above buy threshold %.0f", breakdown.Total, e.buyThreshold)
	case domain.ClassSellCandidate:
		return fmt.Sprintf("score %.1f below sell threshold %.0f", breakdown.Total, e.sellThreshold)
	default:
		return fmt.Sprintf("score %.1f between thresholds", breakdown.Total)
	}
}

// activityScore rewards trade count, distinct participants and buy-side
// dominance. Bands: trades up to 50 points at 1000 trades, participants up
// to 30 at 500, buy ratio up to 20 at 60% buys.
func activityScore(stats *domain.MarketStats) float64 {
	totalTrades := float64(stats.BuyCount + stats.SellCount)
	traders := float64(stats.DistinctBuyers + stats.DistinctSellers)

	tradeScore := clamp(totalTrades/1000*50, 0, 50)
	traderScore := clamp(traders/500*30, 0, 30)

	var ratioScore float64
	totalVolume := stats.BuyVolumeUSD + stats.SellVolumeUSD
	if totalVolume > 0 {
		buyRatio := stats.BuyVolumeUSD / totalVolume
		ratioScore = clamp(buyRatio/0.6*20, 0, 20)
	}

	return clamp(tradeScore+traderScore+ratioScore, 0, 100)
}

// momentumScore maps the blended price change onto [0,100], where -30%
// change pins to 0 and +30% to 100. The recent tail of the window is
// weighted heavier than the full average.
func momentumScore(prices []float64) float64 {
	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		changes = append(changes, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(changes) == 0 {
		return 50
	}

	avg := mean(changes)
	recent := changes
	if len(changes) > 3 {
		recent = changes[len(changes)-3:]
	}
	blended := 0.4*avg + 0.6*mean(recent)

	return clamp((blended+0.3)/0.6*100, 0, 100)
}

// holdersScore penalizes top-holder concentration. Concentration is a
// percentage; 80% or more scores zero.
func holdersScore(concentration float64) float64 {
	if concentration >= 80 {
		return 0
	}
	return clamp((1-concentration/80)*100, 0, 100)
}

// liquidityScore scales pool balance, saturating at 500 SOL.
func liquidityScore(poolBalance float64) float64 {
	return clamp(poolBalance/500*100, 0, 100)
}

// bondingCurveScore favors the mid-curve band. Early progress ramps up,
// 40-90% is the sweet spot, past 90% the token is about to graduate and
// the score decays fast.
func bondingCurveScore(progress float64) float64 {
	switch {
	case progress < 0:
		return 0
	case progress < 0.4:
		return clamp(progress*250, 0, 100)
	case progress < 0.9:
		return 100
	default:
		return clamp(100-(progress-0.9)*1000, 0, 100)
	}
}

// weightedTotal renormalizes the weights over the present sub-scores.
func weightedTotal(b *domain.ScoreBreakdown) float64 {
	var sum, weightSum float64
	add := func(score *float64, weight float64) {
		if score == nil {
			return
		}
		sum += *score * weight
		weightSum += weight
	}
	add(b.Activity, weightActivity)
	add(b.Momentum, weightMomentum)
	add(b.Holders, weightHolders)
	add(b.Liquidity, weightLiquidity)
	add(b.BondingCurve, weightBondingCurve)

	if weightSum == 0 {
		return 0
	}
	return clamp(sum/weightSum, 0, 100)
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

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
