package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cointools/internal/config"
	"github.com/newthinker/cointools/internal/core"
	"github.com/newthinker/cointools/internal/storage/archive"
)

var exportConvert string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all CoinMarketCap prices into the archive",
	Long: `Download the full CoinMarketCap ticker page by page and write it as one
JSON snapshot under snapshots/<date>/<id>.json in the configured archive.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var snapshotsDate string

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List archived snapshots taken on a day",
	Args:  cobra.NoArgs,
	RunE:  runSnapshots,
}

func init() {
	exportCmd.Flags().StringVar(&exportConvert, "convert", "", "fiat currency to convert to")
	snapshotsCmd.Flags().StringVar(&snapshotsDate, "date", "", "UTC day YYYY-MM-DD (default today)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func openArchive(cfg config.ArchiveConfig) (archive.Storage, error) {
	return archive.Open(cfg.Type, cfg.Path, archive.S3Config{
		Bucket:    cfg.S3.Bucket,
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Prefix:    cfg.S3.Prefix,
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if err := a.require("coinmarketcap"); err != nil {
			return err
		}

		store, err := openArchive(a.cfg.Archive)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}

		ctx := cmd.Context()
		started := time.Now()
		total := 0
		coins, err := a.providers.CoinMarketCap.GetAllPrices(ctx, exportConvert, func(batch []core.CoinData) {
			total += len(batch)
			a.log.Info("page downloaded", zap.Int("coins", len(batch)), zap.Int("total", total))
		})
		if err != nil {
			return err
		}

		snapshot := archive.NewSnapshot("coinmarketcap", exportConvert, started, coins)
		path, err := archive.WriteSnapshot(ctx, store, snapshot)
		if err != nil {
			return err
		}

		a.log.Info("snapshot written",
			zap.String("path", path),
			zap.Int("coins", len(coins)),
			zap.Duration("duration", time.Since(started)),
		)
		fmt.Printf("%d coins written to %s\n", len(coins), path)
		return nil
	})
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	day := time.Now().UTC()
	if snapshotsDate != "" {
		var err error
		day, err = time.Parse(time.DateOnly, snapshotsDate)
		if err != nil {
			return fmt.Errorf("invalid date format (expected YYYY-MM-DD): %w", err)
		}
	}

	return withApp(func(a *app) error {
		store, err := openArchive(a.cfg.Archive)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		return printSnapshots(cmd.Context(), os.Stdout, store, day)
	})
}

func printSnapshots(ctx context.Context, out io.Writer, store archive.Storage, day time.Time) error {
	paths, err := archive.ListSnapshots(ctx, store, day)
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "No snapshots on %s.\n", day.UTC().Format(time.DateOnly))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAKEN\tPROVIDER\tCONVERT\tCOINS\tPATH\t")
	fmt.Fprintln(w, "-----\t--------\t-------\t-----\t----\t")
	for _, p := range paths {
		s, err := archive.ReadSnapshot(ctx, store, p)
		if err != nil {
			return err
		}
		convert := s.Convert
		if convert == "" {
			convert = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t\n",
			s.TakenAt.Format(time.DateTime), s.Provider, convert, len(s.Coins), p)
	}
	return w.Flush()
}
