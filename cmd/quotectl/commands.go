package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
	"github.com/ridwanfathin/tour-quote-service/internal/itinerarysync"
	"github.com/ridwanfathin/tour-quote-service/internal/metrics"
	"github.com/ridwanfathin/tour-quote-service/internal/repository"
	"github.com/ridwanfathin/tour-quote-service/internal/service"
	"github.com/ridwanfathin/tour-quote-service/internal/versioning"
)

func calcCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "calc <quote-file>",
		Short: "Price a quote file",
		Long:  "Aggregates the quote's categories and prints per-identity cost, price and profit for the primary headcount and every tier.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quote domain.Quote
			if err := readDocument(args[0], &quote); err != nil {
				return err
			}

			svc := service.NewQuoteService(service.Dependencies{Metrics: metrics.New()})
			calc, err := svc.Calculate(cmd.Context(), quote.State, quote.TierPricings)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), *format, calc)
		},
	}
}

func syncPreviewCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-preview <quote-file> <itinerary-file>",
		Short: "Show the meal changes a sync would write into an itinerary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quote domain.Quote
			if err := readDocument(args[0], &quote); err != nil {
				return err
			}
			var itinerary domain.Itinerary
			if err := readDocument(args[1], &itinerary); err != nil {
				return err
			}
			if itinerary.ID == "" {
				itinerary.ID = "local"
			}

			ctx := cmd.Context()
			repo := repository.NewMemoryRepository()
			if err := repo.Itineraries().Create(ctx, &itinerary); err != nil {
				return err
			}
			quote.ItineraryID = &itinerary.ID

			logger := log.New(cmd.ErrOrStderr(), "", 0)
			engine := itinerarysync.NewEngine(repo.Itineraries(), itinerarysync.WithLogger(logger.Printf))
			preview, err := engine.Preview(ctx, &quote)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), *format, preview)
		},
	}
}

func draftCmd(format *string) *cobra.Command {
	var asItinerary bool

	cmd := &cobra.Command{
		Use:   "draft <quote-file>",
		Short: "Draft an itinerary from a quote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quote domain.Quote
			if err := readDocument(args[0], &quote); err != nil {
				return err
			}

			logger := log.New(cmd.ErrOrStderr(), "", 0)
			draft := itinerarysync.BuildItineraryDraft(&quote, logger.Printf)
			if asItinerary {
				return writeDocument(cmd.OutOrStdout(), *format, draft.Itinerary("", nowFunc()))
			}
			return writeDocument(cmd.OutOrStdout(), *format, draft)
		},
	}
	cmd.Flags().BoolVar(&asItinerary, "itinerary", false, "Print the draft laid out as an itinerary document")
	return cmd
}

func versionCmd(format *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Manage the versions stored in a quote file",
	}

	var name, note string
	var asNew bool
	save := &cobra.Command{
		Use:   "save <quote-file>",
		Short: "Snapshot the live state into a new version and rewrite the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateQuoteFile(cmd, args[0], *format, func(store *versioning.Store) (interface{}, error) {
				if asNew {
					record, _ := store.SaveAsNewVersion(name, note)
					return record, nil
				}
				return store.Save(name, note), nil
			})
		},
	}
	save.Flags().StringVar(&name, "name", "", "Version name (defaults to 版本 N)")
	save.Flags().StringVar(&note, "note", "", "Version note")
	save.Flags().BoolVar(&asNew, "as-new", false, "Also make the new version the loaded one")

	list := &cobra.Command{
		Use:   "list <quote-file>",
		Short: "List the versions of a quote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var quote domain.Quote
			if err := readDocument(args[0], &quote); err != nil {
				return err
			}
			store := versioning.NewStore(&quote)
			return writeDocument(cmd.OutOrStdout(), *format, service.VersionList{
				Versions:       store.Versions(),
				CurrentVersion: store.CurrentVersion(),
			})
		},
	}

	load := &cobra.Command{
		Use:   "load <quote-file> <index>",
		Short: "Load version index into the live state (-1 for the primary state)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return updateQuoteFile(cmd, args[0], *format, func(store *versioning.Store) (interface{}, error) {
				current, err := store.Load(index)
				return map[string]int{"current_version": current}, err
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <quote-file> <index>",
		Short: "Delete version index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return updateQuoteFile(cmd, args[0], *format, func(store *versioning.Store) (interface{}, error) {
				current, err := store.Delete(index)
				return map[string]int{"current_version": current}, err
			})
		},
	}

	cmd.AddCommand(save, list, load, remove)
	return cmd
}

// updateQuoteFile runs fn on the quote stored at path, rewrites the file in
// its own format and prints fn's result
func updateQuoteFile(cmd *cobra.Command, path, format string, fn func(store *versioning.Store) (interface{}, error)) error {
	var quote domain.Quote
	if err := readDocument(path, &quote); err != nil {
		return err
	}
	if quote.Versions == nil && quote.CurrentVersion == 0 {
		quote.CurrentVersion = domain.PrimaryVersion
	}

	result, err := fn(versioning.NewStore(&quote))
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := writeDocument(f, formatForPath(path), &quote); err != nil {
		return err
	}
	return writeDocument(cmd.OutOrStdout(), format, result)
}
