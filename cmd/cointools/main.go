package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newthinker/cointools/internal/core"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "cointools",
	Short: "cointools - cryptocurrency price lookups",
	Long: `cointools fetches current and historical cryptocurrency prices from
BitBay, CoinCap, CoinMarketCap and Cryptowatch.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe renders provider errors as "<Kind>: <message>".
func describe(err error) string {
	var typed *core.Error
	if errors.As(err, &typed) {
		return typed.NiceMessage()
	}
	return err.Error()
}
