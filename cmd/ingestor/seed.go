package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sabawaheed27/motofix-europe/internal/app"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

var (
	seedFile    string
	seedCreator string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert shops from a JSON array",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON file with an array of shops")
	seedCmd.Flags().StringVar(&seedCreator, "created-by", "", "user id recorded as creator")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(seedFile)
	if err != nil {
		return err
	}
	defer f.Close()
	shops, err := decodeSeed(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	var creator *string
	if seedCreator != "" {
		creator = &seedCreator
	}
	n, err := app.NewIngestionService(nil, e.be.Shops, e.cache).Seed(ctx, creator, shops)
	log.Info().Int("inserted", n).Int("total", len(shops)).Msg("seed finished")
	return err
}

func decodeSeed(r io.Reader) ([]domain.ShopInput, error) {
	var shops []domain.ShopInput
	if err := json.NewDecoder(r).Decode(&shops); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return shops, nil
}
