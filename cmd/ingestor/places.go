package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/sabawaheed27/motofix-europe/internal/adapters/places"
	"github.com/sabawaheed27/motofix-europe/internal/app"
)

var (
	placesFile    string
	placesWorkers int
	placesRPS     int
)

var placesCmd = &cobra.Command{
	Use:   "places",
	Short: "Fetch Google Places details and upsert them as shops",
	RunE:  runPlaces,
}

func init() {
	placesCmd.Flags().StringVar(&placesFile, "file", "", "file with one place id per line (- for stdin)")
	placesCmd.Flags().IntVar(&placesWorkers, "workers", 0, "concurrent fetches (default INGEST_WORKERS)")
	placesCmd.Flags().IntVar(&placesRPS, "rps", 5, "Places API requests per second")
	_ = placesCmd.MarkFlagRequired("file")
}

func runPlaces(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	ids, err := readPlaceIDs(placesFile)
	if err != nil {
		return err
	}
	workers := placesWorkers
	if workers <= 0 {
		workers = e.cfg.IngestWorkers
	}
	if workers <= 0 {
		workers = 1
	}

	client, err := places.New(e.cfg.PlacesBaseURL, e.cfg.PlacesAPIKey, placesRPS)
	if err != nil {
		return fmt.Errorf("places client: %w", err)
	}
	ing := app.NewIngestionService(client, e.be.Shops, e.cache)

	log.Info().Int("places", len(ids)).Int("workers", workers).Msg("ingestor starting")

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingestion interrupted")
			break
		}
		wg.Add(1)
		go func(placeID string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestPlace(ctx, placeID); err != nil {
				failed.Add(1)
				log.Warn().Str("place_id", placeID).Err(err).Msg("ingest failed")
				return
			}
			log.Debug().Str("place_id", placeID).Msg("ingest ok")
		}(id)
	}
	wg.Wait()

	log.Info().Int("places", len(ids)).Int64("failed", failed.Load()).Msg("ingestion completed")
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d places failed", n, len(ids))
	}
	return nil
}

func readPlaceIDs(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return parsePlaceIDs(r)
}

// parsePlaceIDs reads one id per line. Blank lines, # comments and repeated
// ids are skipped.
func parsePlaceIDs(r io.Reader) ([]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read place ids: %w", err)
	}
	return ids, nil
}
