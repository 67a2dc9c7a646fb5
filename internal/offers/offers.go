// Package offers simulates third-party booking site quotes for a catalog
// option. Prices are synthetic: a random variation around the catalog price
// and a random discount.
package offers

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"Travia/internal/transport"
)

// DefaultSites is the number of providers quoted when the caller does not say.
const DefaultSites = 4

const fallbackBasePrice = 500.0

var providers = map[transport.Mode][]string{
	transport.ModeBike:   {"Rapido", "Uber Moto", "Ola Bike", "QuickRide"},
	transport.ModeTaxi:   {"Uber", "Ola Cabs", "Meru Cabs", "MegaTaxi"},
	transport.ModeBus:    {"RedBus", "AbhiBus", "MakeMyTrip Bus", "Goibibo Bus"},
	transport.ModeTrain:  {"IRCTC", "MakeMyTrip Train", "Goibibo Train", "PayTM Rail"},
	transport.ModeFlight: {"MakeMyTrip", "Goibibo", "ClearTrip", "IXIGO"},
}

var genericProviders = []string{"TravelNow", "BookMyRide", "EasyTrip"}

var discounts = []float64{0, 5, 10, 15}

// Providers returns the booking sites known for mode, or the generic list.
func Providers(mode transport.Mode) []string {
	list, ok := providers[transport.Mode(strings.ToLower(string(mode)))]
	if !ok {
		list = genericProviders
	}
	return append([]string(nil), list...)
}

// Offer is one simulated listing.
type Offer struct {
	Site       string  `json:"site"`
	ListPrice  float64 `json:"list_price"`
	Discount   float64 `json:"discount"`
	FinalPrice float64 `json:"final_price"`
	CTAText    string  `json:"cta_text"`
}

// Simulator draws offers from a seedable random source. It is safe for
// concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a Simulator over src.
func NewSimulator(src rand.Source) *Simulator {
	return &Simulator{rng: rand.New(src)}
}

// Simulate quotes opt on the first sites providers for its mode, sorted by
// ascending final price. sites <= 0 uses DefaultSites.
func (s *Simulator) Simulate(opt transport.Option, sites int) []Offer {
	if sites <= 0 {
		sites = DefaultSites
	}
	selected := Providers(opt.Mode)
	if sites < len(selected) {
		selected = selected[:sites]
	}

	base := opt.Price
	if base <= 0 {
		base = fallbackBasePrice
	}

	s.mu.Lock()
	out := make([]Offer, 0, len(selected))
	for _, site := range selected {
		variation := -0.15 + s.rng.Float64()*0.40
		listPrice := round2(base * (1 + variation))
		discount := discounts[s.rng.Intn(len(discounts))]
		out = append(out, Offer{
			Site:       site,
			ListPrice:  listPrice,
			Discount:   discount,
			FinalPrice: round2(listPrice * (1 - discount/100)),
			CTAText:    fmt.Sprintf("Book on %s", site),
		})
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalPrice < out[j].FinalPrice
	})
	return out
}

// PickBest returns the offer with the lowest final price.
func PickBest(offers []Offer) (Offer, bool) {
	if len(offers) == 0 {
		return Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.FinalPrice < best.FinalPrice {
			best = o
		}
	}
	return best, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
