package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"cadence/internal/music"
	"cadence/internal/musiccache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the music metadata cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache row counts and staleness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *musiccache.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache stats: %w", err)
				}

				headers := []string{"Table", "Rows", "Stale"}
				rows := [][]string{
					{"fingerprints", strconv.FormatInt(stats.Fingerprints, 10), strconv.FormatInt(stats.StaleFingerprints, 10)},
					{"recordings", strconv.FormatInt(stats.Recordings, 10), strconv.FormatInt(stats.StaleRecordings, 10)},
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, render(headers, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
				fmt.Fprintf(out, "Database: %s\n", store.Path())
				if ttl := store.TTL(); ttl > 0 {
					fmt.Fprintf(out, "TTL: %d days\n", int(ttl/(24*time.Hour)))
				} else {
					fmt.Fprintln(out, "TTL: disabled")
				}
				return nil
			})
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently cached recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *musiccache.Store) error {
				summaries, err := store.RecentRecordings(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list recordings: %w", err)
				}
				if len(summaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
					return nil
				}

				coll := collate.New(language.English, collate.IgnoreCase)
				sort.SliceStable(summaries, func(i, j int) bool {
					return coll.CompareString(summaries[i].Title, summaries[j].Title) < 0
				})

				headers := []string{"Title", "Artist", "Album", "Recording ID", "Cached"}
				rows := make([][]string, 0, len(summaries))
				for _, summary := range summaries {
					rows = append(rows, []string{
						summary.Title,
						summary.Artist,
						summary.Album,
						summary.RecordingID,
						summary.CachedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), render(headers, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of recordings to list")
	return cmd
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache rows (everything with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *musiccache.Store) error {
				var (
					removed int64
					err     error
				)
				if all {
					removed, err = store.PurgeAll(cmd.Context())
				} else {
					removed, err = store.PurgeExpired(cmd.Context())
				}
				if err != nil {
					return fmt.Errorf("purge cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d rows.\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every row, not just expired ones")
	return cmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <recording-id>",
		Short: "Dump one cached recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := music.CanonicalRecordingID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *musiccache.Store) error {
				result, ok := store.LookupRecording(cmd.Context(), id)
				if !ok {
					return fmt.Errorf("recording %s is not cached (or its row expired)", id)
				}
				printRecording(cmd, result)
				return nil
			})
		},
	}
}

func printRecording(cmd *cobra.Command, result *musiccache.RecordingResult) {
	out := cmd.OutOrStdout()
	rec := result.Recording

	fmt.Fprintf(out, "Recording: %s\n", rec.ID)
	fmt.Fprintf(out, "Title:     %s\n", rec.Title)
	fmt.Fprintf(out, "Artist:    %s\n", rec.Artist)
	if credit := music.CreditString(rec.ArtistCredits); credit != "" && credit != rec.Artist {
		fmt.Fprintf(out, "Credit:    %s\n", credit)
	}
	fmt.Fprintf(out, "Album:     %s\n", optionalString(rec.Album))
	fmt.Fprintf(out, "Released:  %s\n", optionalString(rec.ReleaseDate))
	if rec.Disambiguation != nil {
		fmt.Fprintf(out, "Note:      %s\n", *rec.Disambiguation)
	}
	if rec.Rating != nil {
		fmt.Fprintf(out, "Rating:    %.1f (%d votes)\n", rec.Rating.Value, rec.Rating.Votes)
	}
	if len(rec.ISRCs) > 0 {
		fmt.Fprintf(out, "ISRCs:     %v\n", rec.ISRCs)
	}
	for _, release := range rec.Releases {
		fmt.Fprintf(out, "Release %s (%s, %s)\n", release.Title, release.Status, release.CountryCode)
		for _, medium := range release.Media {
			fmt.Fprintf(out, "  %s, %d tracks\n", medium.Format, medium.TrackCount)
			for _, track := range medium.Tracks {
				fmt.Fprintf(out, "    %s. %s (%s)\n", track.Number, track.Title,
					(time.Duration(track.LengthMillis) * time.Millisecond).Round(time.Second))
			}
		}
	}
	fmt.Fprintf(out, "Cached:    %s\n", result.CachedAt.Local().Format(time.RFC1123))
}

func optionalString(value *string) string {
	if value == nil {
		return "(unknown)"
	}
	return *value
}
