package world

import "strings"

// DefaultSeed roots the RNG hierarchy when a scenario omits one.
const DefaultSeed = "prototype"

// Tunables collects the fixed coefficients referenced throughout the tick
// engine. Every field has a fixed default; scenarios may override a
// subset and leave the rest at zero, in which case Normalized fills them in.
type Tunables struct {
	// BufferTicks multiplies desired_consumption_ema to derive a pop's stock target.
	BufferTicks float64 `json:"bufferTicks" yaml:"bufferTicks"`

	// PriceEMAOld/PriceEMANew blend the settlement price EMA on traded volume.
	PriceEMAOld float64 `json:"priceEmaOld" yaml:"priceEmaOld"`
	PriceEMANew float64 `json:"priceEmaNew" yaml:"priceEmaNew"`

	// IncomeEMAOld/IncomeEMANew blend a pop's income EMA after wage settlement.
	IncomeEMAOld float64 `json:"incomeEmaOld" yaml:"incomeEmaOld"`
	IncomeEMANew float64 `json:"incomeEmaNew" yaml:"incomeEmaNew"`

	// DesiredEMAOld/DesiredEMANew blend desired_consumption_ema after the discovery pass.
	DesiredEMAOld float64 `json:"desiredEmaOld" yaml:"desiredEmaOld"`
	DesiredEMANew float64 `json:"desiredEmaNew" yaml:"desiredEmaNew"`

	// LadderPoints is the number of price points swept when generating buy/sell ladders.
	LadderPoints int `json:"ladderPoints" yaml:"ladderPoints"`
	// LadderLowMult/LadderHighMult bound the normalized price sweep around the price EMA.
	LadderLowMult  float64 `json:"ladderLowMult" yaml:"ladderLowMult"`
	LadderHighMult float64 `json:"ladderHighMult" yaml:"ladderHighMult"`

	// MaxClearIter caps the cross-good budget reconciliation loop.
	MaxClearIter int `json:"maxClearIter" yaml:"maxClearIter"`

	// RatchetUp/RatchetDown/MinMargin drive the adaptive facility wage bid controller.
	RatchetUp   float64 `json:"ratchetUp" yaml:"ratchetUp"`
	RatchetDown float64 `json:"ratchetDown" yaml:"ratchetDown"`
	MinMargin   float64 `json:"minMargin" yaml:"minMargin"`

	// ProductionTaper damps output past optimal workforce.
	ProductionTaper float64 `json:"productionTaper" yaml:"productionTaper"`

	// SubsistenceQMax/SubsistenceAlpha parameterize the ranked in-kind yield curve.
	SubsistenceQMax   float64 `json:"subsistenceQMax" yaml:"subsistenceQMax"`
	SubsistenceAlpha  float64 `json:"subsistenceAlpha" yaml:"subsistenceAlpha"`
	DefaultGrainPrice float64 `json:"defaultGrainPrice" yaml:"defaultGrainPrice"`

	// AnchorTierCount/AnchorTierStepBPS/AnchorDepthPerPop shape external ladders.
	AnchorTierCount    int     `json:"anchorTierCount" yaml:"anchorTierCount"`
	AnchorTierStepBPS  float64 `json:"anchorTierStepBps" yaml:"anchorTierStepBps"`
	AnchorDepthPerPop  float64 `json:"anchorDepthPerPop" yaml:"anchorDepthPerPop"`

	// MortalityK/MortalityFoodFloor/MaxGrowth/GrowthFoodCeiling shape demography.
	MortalityK          float64 `json:"mortalityK" yaml:"mortalityK"`
	MortalityFoodFloor  float64 `json:"mortalityFoodFloor" yaml:"mortalityFoodFloor"`
	GrowthFoodFloor     float64 `json:"growthFoodFloor" yaml:"growthFoodFloor"`
	GrowthFoodCeiling   float64 `json:"growthFoodCeiling" yaml:"growthFoodCeiling"`
	MaxGrowth           float64 `json:"maxGrowth" yaml:"maxGrowth"`

	// ShipSpeed is the route distance a ship covers per tick when en route.
	ShipSpeed float64 `json:"shipSpeed" yaml:"shipSpeed"`

	// MinPrice/MaxPrice clamp every price EMA.
	MinPrice float64 `json:"minPrice" yaml:"minPrice"`
	MaxPrice float64 `json:"maxPrice" yaml:"maxPrice"`

	// Epsilon guards divisions against a zero denominator.
	Epsilon float64 `json:"epsilon" yaml:"epsilon"`

	// SubsistenceInKind and SubsistenceReservation independently toggle the two
	// subsistence behaviors (both may be on at once).
	SubsistenceInKind      bool `json:"subsistenceInKind" yaml:"subsistenceInKind"`
	SubsistenceReservation bool `json:"subsistenceReservation" yaml:"subsistenceReservation"`

	// DemandOnlyLabor switches the labor market to the demand-side-only
	// variant kept for A/B experiments; ask+bid is the default.
	DemandOnlyLabor bool `json:"demandOnlyLabor" yaml:"demandOnlyLabor"`
}

// DefaultTunables returns the default coefficient set.
func DefaultTunables() Tunables {
	return Tunables{
		BufferTicks:            5,
		PriceEMAOld:            0.7,
		PriceEMANew:            0.3,
		IncomeEMAOld:           0.7,
		IncomeEMANew:           0.3,
		DesiredEMAOld:          0.8,
		DesiredEMANew:          0.2,
		LadderPoints:           9,
		LadderLowMult:          0.6,
		LadderHighMult:         1.4,
		MaxClearIter:           5,
		RatchetUp:              2.0,
		RatchetDown:            1.0,
		MinMargin:              0.05,
		ProductionTaper:        1.5,
		SubsistenceQMax:        2.0,
		SubsistenceAlpha:       0.02,
		DefaultGrainPrice:      1.0,
		AnchorTierCount:        5,
		AnchorTierStepBPS:      100,
		AnchorDepthPerPop:      0.1,
		MortalityK:             1.2222,
		MortalityFoodFloor:     0.9,
		GrowthFoodFloor:        1.0,
		GrowthFoodCeiling:      1.25,
		MaxGrowth:              0.02,
		ShipSpeed:              1.0,
		MinPrice:               0.01,
		MaxPrice:               1e6,
		Epsilon:                1e-9,
		SubsistenceInKind:      false,
		SubsistenceReservation: false,
		DemandOnlyLabor:        false,
	}
}

func (t Tunables) normalized() Tunables {
	d := DefaultTunables()
	if t.BufferTicks <= 0 {
		t.BufferTicks = d.BufferTicks
	}
	if t.PriceEMAOld <= 0 && t.PriceEMANew <= 0 {
		t.PriceEMAOld, t.PriceEMANew = d.PriceEMAOld, d.PriceEMANew
	}
	if t.IncomeEMAOld <= 0 && t.IncomeEMANew <= 0 {
		t.IncomeEMAOld, t.IncomeEMANew = d.IncomeEMAOld, d.IncomeEMANew
	}
	if t.DesiredEMAOld <= 0 && t.DesiredEMANew <= 0 {
		t.DesiredEMAOld, t.DesiredEMANew = d.DesiredEMAOld, d.DesiredEMANew
	}
	if t.LadderPoints <= 0 {
		t.LadderPoints = d.LadderPoints
	}
	if t.LadderLowMult <= 0 {
		t.LadderLowMult = d.LadderLowMult
	}
	if t.LadderHighMult <= 0 {
		t.LadderHighMult = d.LadderHighMult
	}
	if t.MaxClearIter <= 0 {
		t.MaxClearIter = d.MaxClearIter
	}
	if t.RatchetUp <= 0 {
		t.RatchetUp = d.RatchetUp
	}
	if t.RatchetDown <= 0 {
		t.RatchetDown = d.RatchetDown
	}
	if t.MinMargin <= 0 {
		t.MinMargin = d.MinMargin
	}
	if t.ProductionTaper <= 0 {
		t.ProductionTaper = d.ProductionTaper
	}
	if t.SubsistenceQMax <= 0 {
		t.SubsistenceQMax = d.SubsistenceQMax
	}
	if t.SubsistenceAlpha <= 0 {
		t.SubsistenceAlpha = d.SubsistenceAlpha
	}
	if t.DefaultGrainPrice <= 0 {
		t.DefaultGrainPrice = d.DefaultGrainPrice
	}
	if t.AnchorTierCount <= 0 {
		t.AnchorTierCount = d.AnchorTierCount
	}
	if t.AnchorTierStepBPS <= 0 {
		t.AnchorTierStepBPS = d.AnchorTierStepBPS
	}
	if t.AnchorDepthPerPop <= 0 {
		t.AnchorDepthPerPop = d.AnchorDepthPerPop
	}
	if t.MortalityK <= 0 {
		t.MortalityK = d.MortalityK
	}
	if t.MortalityFoodFloor <= 0 {
		t.MortalityFoodFloor = d.MortalityFoodFloor
	}
	if t.GrowthFoodFloor <= 0 {
		t.GrowthFoodFloor = d.GrowthFoodFloor
	}
	if t.GrowthFoodCeiling <= 0 {
		t.GrowthFoodCeiling = d.GrowthFoodCeiling
	}
	if t.MaxGrowth <= 0 {
		t.MaxGrowth = d.MaxGrowth
	}
	if t.ShipSpeed <= 0 {
		t.ShipSpeed = d.ShipSpeed
	}
	if t.MinPrice <= 0 {
		t.MinPrice = d.MinPrice
	}
	if t.MaxPrice <= 0 {
		t.MaxPrice = d.MaxPrice
	}
	if t.Epsilon <= 0 {
		t.Epsilon = d.Epsilon
	}
	return t
}

// Config roots the scenario-level knobs a World is constructed from.
type Config struct {
	Seed     string   `json:"seed" yaml:"seed"`
	Tunables Tunables `json:"tunables" yaml:"tunables"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	normalized.Tunables = normalized.Tunables.normalized()
	return normalized
}

// Normalized exposes the defaulting behavior to callers outside the package.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

// DefaultConfig returns a Config with the default tunables.
func DefaultConfig() Config {
	return Config{Seed: DefaultSeed, Tunables: DefaultTunables()}
}
