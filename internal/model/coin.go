package model

import "strings"

// Day-count bounds offered to users. The core itself does not enforce them.
const (
	MinDays     = 7
	MaxDays     = 90
	DefaultDays = 30
)

// CoinIdentity maps a display name to the identifier each source expects.
type CoinIdentity struct {
	Name string            `yaml:"name" json:"name"`
	IDs  map[Source]string `yaml:"ids" json:"ids"`
}

// ID returns the identifier src uses for this coin, or "" when none is configured.
func (c CoinIdentity) ID(src Source) string {
	return c.IDs[src]
}

// CoinRegistry is the ordered list of coins offered for comparison.
type CoinRegistry []CoinIdentity

// Lookup finds a coin by display name, ignoring case.
func (r CoinRegistry) Lookup(name string) (CoinIdentity, bool) {
	for _, c := range r {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return CoinIdentity{}, false
}

func (r CoinRegistry) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// DefaultCoins returns the built-in coin list.
func DefaultCoins() CoinRegistry {
	return CoinRegistry{
		{Name: "Bitcoin", IDs: map[Source]string{SourceCoinGecko: "bitcoin", SourceCryptoCompare: "BTC"}},
		{Name: "Ethereum", IDs: map[Source]string{SourceCoinGecko: "ethereum", SourceCryptoCompare: "ETH"}},
		{Name: "Litecoin", IDs: map[Source]string{SourceCoinGecko: "litecoin", SourceCryptoCompare: "LTC"}},
	}
}
