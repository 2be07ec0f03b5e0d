package fno

import (
	"math"

	"zonix/internal/models"
	"zonix/internal/pricing"
)

const (
	// StrikesPerSide is the number of strikes listed on each side of ATM.
	StrikesPerSide = 5
	// MinPremium floors every option premium.
	MinPremium = 5.0

	greeksPlaces = 4
)

// StrikeInterval is 2% of spot rounded to the nearest 100. Spots too small
// for that fall back to 2% rounded to paise.
func StrikeInterval(basePrice float64) float64 {
	interval := math.Round(basePrice*0.02/100) * 100
	if interval == 0 {
		interval = math.Max(0.01, pricing.Round2(basePrice*0.02))
	}
	return interval
}

// TimeValue is the extrinsic value shared by both legs. It decays
// exponentially with distance from spot.
func TimeValue(basePrice, strike float64) float64 {
	return basePrice * 0.03 * math.Exp(-math.Abs(strike-basePrice)/basePrice*2)
}

// OIMultiplier weights open interest toward the money. It falls linearly with
// distance and is floored at 0.1.
func OIMultiplier(basePrice, strike float64) float64 {
	dist := math.Abs(strike - basePrice)
	return math.Max(0.1, 1+(1-dist/(basePrice*0.1)))
}

// CallDelta interpolates between 0.5 and 1 for ITM strikes and between 0 and
// 0.5 for OTM strikes. Ten percent away from spot saturates.
func CallDelta(moneyness float64) float64 {
	d := math.Min(1, math.Abs(moneyness-1)*10)
	switch {
	case moneyness < 1:
		return 0.5 + 0.5*d
	case moneyness > 1:
		return 0.5 - 0.5*d
	default:
		return 0.5
	}
}

// Gamma peaks at the money and is shared by both legs.
func Gamma(moneyness float64) float64 {
	return 0.01 * math.Exp(-5*(moneyness-1)*(moneyness-1))
}

// Vega peaks at the money and is shared by both legs.
func Vega(basePrice, moneyness float64) float64 {
	return basePrice * 0.0001 * math.Exp(-3*(moneyness-1)*(moneyness-1))
}

// GenerateOptionsChain builds the 11-strike chain centred on spot itself, so
// the ATM strike carries no intrinsic value. Max pain and put-call ratio are
// computed over the generated open interest.
func GenerateOptionsChain(basePrice float64, rng pricing.Rand) (*models.OptionChain, error) {
	if err := validSpot(basePrice); err != nil {
		return nil, err
	}

	interval := StrikeInterval(basePrice)
	atm := pricing.Round2(basePrice)

	strikes := make([]models.OptionStrike, 0, 2*StrikesPerSide+1)
	for k := -StrikesPerSide; k <= StrikesPerSide; k++ {
		strikes = append(strikes, generateStrike(basePrice, pricing.Round2(basePrice+float64(k)*interval), atm, rng))
	}

	chain := &models.OptionChain{
		SpotPrice:    basePrice,
		Interval:     interval,
		ATMStrike:    atm,
		Strikes:      strikes,
		MaxPain:      MaxPain(strikes, basePrice),
		PutCallRatio: PutCallRatio(strikes),
	}
	for _, s := range strikes {
		chain.TotalCallOI += s.Call.OI
		chain.TotalPutOI += s.Put.OI
	}
	return chain, nil
}

func generateStrike(basePrice, strike, atm float64, rng pricing.Rand) models.OptionStrike {
	u := func(lo, hi float64) float64 { return pricing.Uniform(rng, lo, hi) }

	callIntrinsic := math.Max(0, basePrice-strike)
	putIntrinsic := math.Max(0, strike-basePrice)
	tv := TimeValue(basePrice, strike)
	oiMult := OIMultiplier(basePrice, strike)
	moneyness := strike / basePrice
	callDelta := CallDelta(moneyness)
	gamma := pricing.RoundTo(Gamma(moneyness), greeksPlaces)
	vega := pricing.RoundTo(Vega(basePrice, moneyness), greeksPlaces)
	// IV smiles upward by 20 points per unit of moneyness away from spot.
	skew := math.Abs(moneyness-1) * 20

	leg := func(intrinsic, delta float64) models.OptionData {
		ltp := pricing.Round2(math.Max(intrinsic+tv+u(-0.15*tv, 0.15*tv), MinPremium))
		return models.OptionData{
			LTP:           ltp,
			Intrinsic:     pricing.Round2(intrinsic),
			TimeValue:     pricing.Round2(math.Max(0, ltp-intrinsic)),
			OI:            int64(u(50_000, 500_000) * oiMult),
			OIChange:      pricing.Round2(u(-15, 15)),
			Volume:        int64(u(5_000, 200_000) * oiMult),
			IV:            pricing.Round2(u(12, 25) + skew),
			ChangePercent: pricing.Round2(u(-20, 20)),
			Greeks: models.OptionGreeks{
				Delta: pricing.RoundTo(delta, greeksPlaces),
				Gamma: gamma,
				Theta: pricing.RoundTo(-(tv/30)+u(-10, 10), greeksPlaces),
				Vega:  vega,
			},
		}
	}

	var m models.Moneyness
	switch {
	case strike == atm:
		m = models.MoneynessATM
	case strike < basePrice:
		m = models.MoneynessITM
	default:
		m = models.MoneynessOTM
	}

	return models.OptionStrike{
		Strike:    strike,
		Moneyness: m,
		Call:      leg(callIntrinsic, callDelta),
		Put:       leg(putIntrinsic, callDelta-1),
	}
}

// StrikePain is the loss carried by one strike's writers against spot:
// calls struck above spot weighted by call OI plus puts struck below spot
// weighted by put OI.
func StrikePain(s models.OptionStrike, spot float64) float64 {
	return float64(s.Call.OI)*math.Max(0, s.Strike-spot) +
		float64(s.Put.OI)*math.Max(0, spot-s.Strike)
}

// MaxPain returns the strike with the lowest StrikePain against spot. Ties
// resolve to the lower strike. An empty chain yields 0.
func MaxPain(strikes []models.OptionStrike, spot float64) float64 {
	best := 0.0
	bestPain := math.Inf(1)
	for _, s := range strikes {
		pain := StrikePain(s, spot)
		if pain < bestPain || (pain == bestPain && s.Strike < best) {
			best = s.Strike
			bestPain = pain
		}
	}
	return best
}

// PutCallRatio is total put OI over total call OI, 0 when there is no call OI.
func PutCallRatio(strikes []models.OptionStrike) float64 {
	var calls, puts int64
	for _, s := range strikes {
		calls += s.Call.OI
		puts += s.Put.OI
	}
	if calls == 0 {
		return 0
	}
	return pricing.Round2(float64(puts) / float64(calls))
}
