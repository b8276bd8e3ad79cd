package instrument

import "fmt"

// Sector groups instruments for correlated price movement.
type Sector string

const (
	SectorTech       Sector = "Tech"
	SectorFinance    Sector = "Finance"
	SectorHealthcare Sector = "Healthcare"
	SectorEnergy     Sector = "Energy"
	SectorConsumer   Sector = "Consumer"
	SectorIndustrial Sector = "Industrial"
	SectorSynthetic  Sector = "Synthetic"
)

// Instrument holds metadata for one tradable instrument. ID is the
// engine's bounded integer identity; everything else is presentation
// and simulation input.
type Instrument struct {
	ID         int
	Ticker     string
	Name       string
	Sector     Sector
	BasePrice  float64
	TickSize   float64
	Volatility float64 // multiplier on the base per-tick volatility
}

// curated is the named portion of the universe. IDs are assigned by
// position when the universe is built.
var curated = []Instrument{
	// Tech — mid-high volatility
	{Ticker: "AXON", Name: "Axon Compute Inc", Sector: SectorTech, BasePrice: 212.00, TickSize: 0.01, Volatility: 1.4},
	{Ticker: "VRTX", Name: "Vertex Arrays Corp", Sector: SectorTech, BasePrice: 88.50, TickSize: 0.01, Volatility: 1.6},
	{Ticker: "OPTC", Name: "Optic Layer Ltd", Sector: SectorTech, BasePrice: 340.00, TickSize: 0.01, Volatility: 1.3},
	{Ticker: "KERN", Name: "Kernel Shift Inc", Sector: SectorTech, BasePrice: 54.25, TickSize: 0.01, Volatility: 1.5},
	{Ticker: "DRFT", Name: "Drift Signal Corp", Sector: SectorTech, BasePrice: 132.00, TickSize: 0.01, Volatility: 1.2},

	// Finance — low volatility
	{Ticker: "ANCR", Name: "Anchor Clearing Group", Sector: SectorFinance, BasePrice: 71.50, TickSize: 0.01, Volatility: 0.7},
	{Ticker: "TRSR", Name: "Tresor Holdings Inc", Sector: SectorFinance, BasePrice: 118.00, TickSize: 0.01, Volatility: 0.8},
	{Ticker: "PLDG", Name: "Pledge Capital Corp", Sector: SectorFinance, BasePrice: 46.00, TickSize: 0.01, Volatility: 0.9},
	{Ticker: "ESCW", Name: "Escrow Trust Mgmt", Sector: SectorFinance, BasePrice: 154.00, TickSize: 0.01, Volatility: 0.6},

	// Healthcare — low volatility
	{Ticker: "SERM", Name: "Serum Path Labs", Sector: SectorHealthcare, BasePrice: 187.00, TickSize: 0.01, Volatility: 0.5},
	{Ticker: "OSSA", Name: "Ossa Orthopedics", Sector: SectorHealthcare, BasePrice: 64.00, TickSize: 0.01, Volatility: 0.6},
	{Ticker: "PLSM", Name: "Plasma Dynamics Ltd", Sector: SectorHealthcare, BasePrice: 141.50, TickSize: 0.01, Volatility: 0.7},

	// Energy — mid volatility
	{Ticker: "KILO", Name: "Kilo Grid Corp", Sector: SectorEnergy, BasePrice: 92.00, TickSize: 0.01, Volatility: 1.1},
	{Ticker: "BARL", Name: "Barrel Basin Inc", Sector: SectorEnergy, BasePrice: 38.50, TickSize: 0.01, Volatility: 1.0},
	{Ticker: "HYDR", Name: "Hydra Renewables", Sector: SectorEnergy, BasePrice: 167.00, TickSize: 0.01, Volatility: 1.2},

	// Consumer — low-mid volatility
	{Ticker: "CRTN", Name: "Carton Goods Inc", Sector: SectorConsumer, BasePrice: 104.00, TickSize: 0.01, Volatility: 0.8},
	{Ticker: "PLTE", Name: "Plate Retail Corp", Sector: SectorConsumer, BasePrice: 261.00, TickSize: 0.01, Volatility: 0.7},
	{Ticker: "SHLF", Name: "Shelf Express Ltd", Sector: SectorConsumer, BasePrice: 69.00, TickSize: 0.01, Volatility: 0.9},

	// Industrial — mid volatility
	{Ticker: "GRDR", Name: "Girder Heavy Works", Sector: SectorIndustrial, BasePrice: 125.00, TickSize: 0.01, Volatility: 1.0},
	{Ticker: "LATH", Name: "Lathe Precision Corp", Sector: SectorIndustrial, BasePrice: 198.00, TickSize: 0.01, Volatility: 1.1},
	{Ticker: "RVET", Name: "Rivet Materials Inc", Sector: SectorIndustrial, BasePrice: 51.75, TickSize: 0.01, Volatility: 1.2},
}

// Universe returns n instruments with ids 0..n-1: the curated table
// first, then deterministic synthetic entries so the engine can be
// sized to any bound (the reference universe is 1024).
func Universe(n int) []Instrument {
	out := make([]Instrument, 0, n)
	for i := 0; i < n; i++ {
		var ins Instrument
		if i < len(curated) {
			ins = curated[i]
		} else {
			ins = synthetic(i)
		}
		ins.ID = i
		out = append(out, ins)
	}
	return out
}

// synthetic builds a deterministic placeholder instrument for ids past
// the curated table. Prices span the 10..1000 range of the reference
// driver.
func synthetic(id int) Instrument {
	return Instrument{
		Ticker:     fmt.Sprintf("SYN%04d", id),
		Name:       fmt.Sprintf("Synthetic Instrument %d", id),
		Sector:     SectorSynthetic,
		BasePrice:  10 + float64(id%396)*2.5,
		TickSize:   0.01,
		Volatility: 1.0,
	}
}

// ByTicker returns a ticker lookup over a universe.
func ByTicker(universe []Instrument) map[string]Instrument {
	m := make(map[string]Instrument, len(universe))
	for _, ins := range universe {
		m[ins.Ticker] = ins
	}
	return m
}

// Sectors returns the distinct sectors in a fixed order.
func Sectors() []Sector {
	return []Sector{
		SectorTech, SectorFinance, SectorHealthcare,
		SectorEnergy, SectorConsumer, SectorIndustrial,
		SectorSynthetic,
	}
}
