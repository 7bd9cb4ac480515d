package collector

import (
	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/collector/crypto/bitbay"
	"github.com/newthinker/cointools/internal/collector/crypto/coincap"
	"github.com/newthinker/cointools/internal/collector/crypto/coinmarketcap"
	"github.com/newthinker/cointools/internal/collector/crypto/cryptowatch"
)

// Config holds per-provider configuration
type Config struct {
	Enabled bool
	BaseURL string
}

// Providers groups the concrete provider clients so callers can reach
// provider specific operations.
type Providers struct {
	BitBay        *bitbay.BitBay
	CoinCap       *coincap.CoinCap
	CoinMarketCap *coinmarketcap.CoinMarketCap
	Cryptowatch   *cryptowatch.Cryptowatch
}

// Build creates every provider on top of client and registers the enabled
// ones. A provider missing from cfgs is enabled with its public base URL.
func Build(client *crypto.Client, cfgs map[string]Config) (*Registry, *Providers) {
	base := func(name string) string { return cfgs[name].BaseURL }

	p := &Providers{
		BitBay:        bitbay.NewWithClient(client, base("bitbay")),
		CoinCap:       coincap.NewWithClient(client, base("coincap")),
		CoinMarketCap: coinmarketcap.NewWithClient(client, base("coinmarketcap")),
		Cryptowatch:   cryptowatch.NewWithClient(client, base("cryptowatch")),
	}

	r := NewRegistry()
	for _, provider := range []crypto.Provider{p.BitBay, p.CoinCap, p.CoinMarketCap, p.Cryptowatch} {
		if cfg, ok := cfgs[provider.Name()]; ok && !cfg.Enabled {
			continue
		}
		r.Register(provider)
	}
	return r, p
}
