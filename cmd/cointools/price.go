package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cointools/internal/collector/crypto"
	"github.com/newthinker/cointools/internal/core"
)

var (
	priceAt      string
	priceConvert string
	priceFast    bool
)

var priceCmd = &cobra.Command{
	Use:   "price <provider> [exchange] <symbol>",
	Short: "Fetch a coin price",
	Long: `Fetch the current price of a coin, or the price at a past moment with --at.
The exchange argument is only used by cryptowatch.`,
	Example: `  cointools price coincap BTC
  cointools price coinmarketcap bitcoin --convert EUR
  cointools price cryptowatch kraken btceur --at "2018-05-20 12:00" --fast`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().StringVar(&priceAt, "at", "", "historical time, e.g. 2018-05-20 12:00")
	priceCmd.Flags().StringVar(&priceConvert, "convert", "", "fiat currency to convert to (coinmarketcap)")
	priceCmd.Flags().BoolVar(&priceFast, "fast", false, "query a single granularity (cryptowatch)")

	rootCmd.AddCommand(priceCmd)
}

// priceQuery maps positional arguments onto a query. Only cryptowatch
// takes an exchange argument.
func priceQuery(args []string) (string, crypto.Query, error) {
	name := args[0]
	q := crypto.Query{Convert: priceConvert, Fast: priceFast}
	if len(args) == 3 {
		if name != "cryptowatch" {
			return "", crypto.Query{}, fmt.Errorf("%s takes a single symbol argument, got exchange %q and symbol %q", name, args[1], args[2])
		}
		q.Exchange, q.Symbol = args[1], args[2]
	} else {
		q.Symbol = args[1]
	}
	return name, q, nil
}

func runPrice(cmd *cobra.Command, args []string) error {
	name, q, err := priceQuery(args)
	if err != nil {
		return err
	}

	if priceAt != "" {
		at, err := crypto.ParseTime(priceAt)
		if err != nil {
			return err
		}
		q.Time = at
	}

	return withApp(func(a *app) error {
		provider, ok := a.registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown or disabled provider %q (available: %v)", name, a.registry.Names())
		}

		dp, err := provider.FetchPrice(cmd.Context(), q)
		if err != nil {
			return err
		}

		a.log.Info("price fetched",
			zap.String("provider", name),
			zap.String("symbol", q.Symbol),
			zap.Bool("historical", !q.Time.IsZero()),
		)
		printDataPoint(os.Stdout, dp)
		return nil
	})
}

func printDataPoint(out io.Writer, dp *core.DataPoint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	row := func(label string, d decimal.NullDecimal) {
		if d.Valid {
			fmt.Fprintf(w, "%s\t%s\n", label, d.Decimal.String())
		}
	}
	row("Price", dp.Price)
	row("USD", dp.USDPrice)
	row("EUR", dp.EURPrice)
	row("BTC", dp.BTCPrice)
	row("Converted", dp.ConvertedPrice)
	if !dp.IsCurrent() {
		fmt.Fprintf(w, "Time\t%s\n", dp.Time.Format(time.DateTime))
	}
	if dp.APITimeSpent != nil && dp.APITimeRemaining != nil {
		fmt.Fprintf(w, "API allowance\t%d spent, %d remaining\n", *dp.APITimeSpent, *dp.APITimeRemaining)
	}
	w.Flush()
}
