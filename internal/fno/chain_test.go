package fno

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "zonix/internal/errors"
	"zonix/internal/models"
)

func TestGenerateOptionsChain_BharatScaleSpot(t *testing.T) {
	chain, err := GenerateOptionsChain(200_000, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.Len(t, chain.Strikes, 11)
	assert.Equal(t, 4000.0, chain.Interval)
	assert.Equal(t, 200_000.0, chain.ATMStrike)
	assert.Equal(t, 180_000.0, chain.Strikes[0].Strike)
	assert.Equal(t, 220_000.0, chain.Strikes[10].Strike)

	atm := chain.Strikes[5]
	assert.Equal(t, models.MoneynessATM, atm.Moneyness)
	assert.Equal(t, 0.0, atm.Call.Intrinsic)
	assert.Equal(t, 0.0, atm.Put.Intrinsic)
	assert.Equal(t, 0.5, atm.Call.Greeks.Delta)
	assert.Equal(t, -0.5, atm.Put.Greeks.Delta)
	assert.Equal(t, 0.01, atm.Call.Greeks.Gamma)
	assert.Equal(t, 20.0, atm.Call.Greeks.Vega)

	for i, s := range chain.Strikes {
		if i < 5 {
			assert.Equal(t, models.MoneynessITM, s.Moneyness)
			assert.Greater(t, s.Call.Intrinsic, 0.0)
		}
		if i > 5 {
			assert.Equal(t, models.MoneynessOTM, s.Moneyness)
			assert.Greater(t, s.Put.Intrinsic, 0.0)
		}
		assert.GreaterOrEqual(t, s.Call.LTP, MinPremium)
		assert.GreaterOrEqual(t, s.Put.LTP, MinPremium)
		assert.Equal(t, s.Call.Greeks.Gamma, s.Put.Greeks.Gamma)
		assert.Equal(t, s.Call.Greeks.Vega, s.Put.Greeks.Vega)
	}

	// 10% away saturates delta
	assert.Equal(t, 1.0, chain.Strikes[0].Call.Greeks.Delta)
	assert.Equal(t, 0.0, chain.Strikes[10].Call.Greeks.Delta)

	var calls, puts int64
	for _, s := range chain.Strikes {
		calls += s.Call.OI
		puts += s.Put.OI
	}
	assert.Equal(t, calls, chain.TotalCallOI)
	assert.Equal(t, puts, chain.TotalPutOI)
	assert.Equal(t, PutCallRatio(chain.Strikes), chain.PutCallRatio)
	assert.Equal(t, MaxPain(chain.Strikes, 200_000), chain.MaxPain)
	assert.Equal(t, 200_000.0, chain.MaxPain)
}

func TestGenerateOptionsChain_OffGridSpotIsATM(t *testing.T) {
	chain, err := GenerateOptionsChain(201_900, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	require.Len(t, chain.Strikes, 11)
	assert.Equal(t, 4000.0, chain.Interval)
	assert.Equal(t, 201_900.0, chain.ATMStrike)
	assert.Equal(t, 181_900.0, chain.Strikes[0].Strike)
	assert.Equal(t, 221_900.0, chain.Strikes[10].Strike)

	atm := chain.Strikes[5]
	assert.Equal(t, 201_900.0, atm.Strike)
	assert.Equal(t, models.MoneynessATM, atm.Moneyness)
	assert.Equal(t, 0.0, atm.Call.Intrinsic)
	assert.Equal(t, 0.0, atm.Put.Intrinsic)
	assert.InDelta(t, 4000.0, chain.Strikes[6].Put.Intrinsic, 0.01)
}

func TestStrikeInterval(t *testing.T) {
	assert.Equal(t, 4000.0, StrikeInterval(200_000))
	assert.Equal(t, 249_000.0, StrikeInterval(12_450_000))
	assert.Equal(t, 100.0, StrikeInterval(2_500))
	assert.Equal(t, 49.98, StrikeInterval(2_499))
	assert.Equal(t, 2.0, StrikeInterval(100))
	assert.Equal(t, 0.02, StrikeInterval(1))
}

func TestGenerateOptionsChain_SmallSpotKeepsPositiveStrikes(t *testing.T) {
	chain, err := GenerateOptionsChain(1, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	require.Len(t, chain.Strikes, 11)
	for _, s := range chain.Strikes {
		assert.Greater(t, s.Strike, 0.0)
	}
}

func TestGenerators_RejectInvalidSpot(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, spot := range []float64{0, -100, 0.5} {
		_, err := GenerateOptionsChain(spot, rng)
		assert.ErrorIs(t, err, zerrors.ErrInvalidSpot, "spot %v", spot)

		_, err = GenerateFutureContracts(spot, []string{"x"}, rng)
		assert.ErrorIs(t, err, zerrors.ErrInvalidSpot, "spot %v", spot)
	}
}

func TestMaxPain(t *testing.T) {
	strike := func(k float64, callOI, putOI int64) models.OptionStrike {
		return models.OptionStrike{Strike: k, Call: models.OptionData{OI: callOI}, Put: models.OptionData{OI: putOI}}
	}

	// spot 112: 100 -> 10*12 = 120, 110 -> 100*2 = 200, 120 -> 10*8 = 80
	strikes := []models.OptionStrike{
		strike(100, 1000, 10),
		strike(110, 100, 100),
		strike(120, 10, 1000),
	}
	assert.Equal(t, 120.0, MaxPain(strikes, 112))
	assert.Equal(t, 120.0, StrikePain(strikes[0], 112))
	assert.Equal(t, 200.0, StrikePain(strikes[1], 112))
	assert.Equal(t, 80.0, StrikePain(strikes[2], 112))

	// the strike at spot carries no pain
	assert.Equal(t, 110.0, MaxPain(strikes, 110))

	// equal pain resolves to the lower strike
	tie := []models.OptionStrike{strike(100, 0, 0), strike(200, 0, 0)}
	assert.Equal(t, 100.0, MaxPain(tie, 150))

	assert.Equal(t, 0.0, MaxPain(nil, 100))
}

func TestPutCallRatio(t *testing.T) {
	strikes := []models.OptionStrike{
		{Call: models.OptionData{OI: 200}, Put: models.OptionData{OI: 150}},
		{Call: models.OptionData{OI: 200}, Put: models.OptionData{OI: 150}},
	}
	assert.Equal(t, 0.75, PutCallRatio(strikes))
	assert.Equal(t, 0.0, PutCallRatio([]models.OptionStrike{{Put: models.OptionData{OI: 10}}}))
}

func TestOIMultiplierAndDelta(t *testing.T) {
	assert.Equal(t, 2.0, OIMultiplier(1000, 1000))
	assert.InDelta(t, 1.0, OIMultiplier(1000, 1100), 1e-9)
	assert.Equal(t, 0.1, OIMultiplier(1000, 5000))

	assert.Equal(t, 0.5, CallDelta(1))
	assert.InDelta(t, 0.75, CallDelta(0.95), 1e-9)
	assert.InDelta(t, 0.25, CallDelta(1.05), 1e-9)
	assert.Equal(t, 1.0, CallDelta(0.5))
	assert.Equal(t, 0.0, CallDelta(1.5))
}

func TestGenerateFutureContracts(t *testing.T) {
	expiries := []string{"29 Oct 2026", "26 Nov 2026", "31 Dec 2026", "28 Jan 2027"}
	spot := 1_500_000.0

	contracts, err := GenerateFutureContracts(spot, expiries, rand.New(rand.NewSource(4)))
	require.NoError(t, err)
	require.Len(t, contracts, 4)

	for i, c := range contracts {
		assert.Equal(t, expiries[i], c.Expiry)
		assert.Equal(t, i == 0, c.NearMonth)

		decay := float64(i) * 0.005
		assert.GreaterOrEqual(t, c.LTP, spot*(1+decay-0.01)-0.01)
		assert.LessOrEqual(t, c.LTP, spot*(1+decay+0.01)+0.01)
		assert.InDelta(t, c.LTP-spot, c.Basis, 0.01)
		assert.InDelta(t, c.Basis/spot*100, c.BasisPercent, 0.01)
		assert.GreaterOrEqual(t, c.ChangePercent, -4.0)
		assert.LessOrEqual(t, c.ChangePercent, 4.0)
		assert.GreaterOrEqual(t, c.OIChange, -10.0)
		assert.LessOrEqual(t, c.OIChange, 10.0)
		assert.Equal(t, FuturesSentiment(c.ChangePercent), c.Sentiment)
	}
}

func TestFuturesSentiment(t *testing.T) {
	assert.Equal(t, models.SentimentBullish, FuturesSentiment(0.31))
	assert.Equal(t, models.SentimentNeutral, FuturesSentiment(0.3))
	assert.Equal(t, models.SentimentNeutral, FuturesSentiment(-0.3))
	assert.Equal(t, models.SentimentBearish, FuturesSentiment(-0.31))
}
