package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cointools/internal/core"
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List coins known to CoinMarketCap",
	Args:  cobra.NoArgs,
	RunE:  runListings,
}

var exchangesCmd = &cobra.Command{
	Use:   "exchanges",
	Short: "List active Cryptowatch exchanges",
	Args:  cobra.NoArgs,
	RunE:  runExchanges,
}

var marketsCmd = &cobra.Command{
	Use:   "markets <exchange>",
	Short: "List active markets of a Cryptowatch exchange",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarkets,
}

func init() {
	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(exchangesCmd)
	rootCmd.AddCommand(marketsCmd)
}

func runListings(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.require("coinmarketcap"); err != nil {
			return err
		}

		byID, err := a.providers.CoinMarketCap.IDMap(cmd.Context())
		if err != nil {
			return err
		}

		listings := make([]core.Listing, 0, len(byID))
		for _, l := range byID {
			listings = append(listings, l)
		}
		sort.Slice(listings, func(i, j int) bool {
			return listings[i].NumericID < listings[j].NumericID
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSYMBOL\tNAME\tSLUG\t")
		fmt.Fprintln(w, "--\t------\t----\t----\t")
		for _, l := range listings {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", l.NumericID, l.Symbol, l.Name, l.TextID)
		}
		w.Flush()

		a.log.Info("listings loaded", zap.Int("count", len(listings)))
		return nil
	})
}

func runExchanges(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.require("cryptowatch"); err != nil {
			return err
		}

		exchanges, err := a.providers.Cryptowatch.Exchanges(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range exchanges {
			fmt.Println(e)
		}
		return nil
	})
}

func runMarkets(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.require("cryptowatch"); err != nil {
			return err
		}

		markets, err := a.providers.Cryptowatch.GetMarkets(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(markets) == 0 {
			fmt.Println("No active markets found.")
			return nil
		}
		for _, m := range markets {
			fmt.Println(m)
		}
		return nil
	})
}
