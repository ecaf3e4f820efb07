package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ZilDuck/marketplace-indexer/internal/config"
	"github.com/ZilDuck/marketplace-indexer/internal/config/di"
	"github.com/ZilDuck/marketplace-indexer/internal/elastic_search"
	"github.com/ZilDuck/marketplace-indexer/internal/reconciliation"
	"github.com/ZilDuck/marketplace-indexer/internal/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	container          *di.Container
	elastic            elastic_search.Index
	listingRepo        repository.ListingRepository
	reconciliationRepo repository.ReconciliationRepository
	checker            reconciliation.Checker
)

func main() {
	config.Init("cli")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	elastic = container.GetElastic()
	listingRepo = container.GetListingRepo()
	reconciliationRepo = container.GetReconciliationRepo()
	checker = container.GetChecker()

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "reconcile",
				Usage:  "Check projected listings against contract state",
				Action: processReconcile,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listing", Value: "", Usage: "Check a single listing (chainId:marketplaceAddr:listingId)"},
				},
			},
			{
				Name:   "mismatches",
				Usage:  "Show reconciliation mismatches",
				Action: processMismatches,
			},
			{
				Name:   "listing",
				Usage:  "Inspect a projected listing (chainId:marketplaceAddr:listingId)",
				Action: processListing,
			},
			{
				Name:   "replay",
				Usage:  "Rewind a marketplace to a height and replay from there (chainId:marketplaceAddr)",
				Action: processReplay,
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "height", Required: true, Usage: "Block height to rewind to"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func processReconcile(c *cli.Context) error {
	if target := c.String("listing"); target != "" {
		chainId, marketplaceAddr, listingId, err := parseListingKey(target)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("Invalid listing identifier")
			return nil
		}

		listing, err := listingRepo.GetListing(chainId, marketplaceAddr, listingId)
		if err != nil {
			zap.L().With(zap.Error(err)).Error("Listing not found")
			return nil
		}

		result, err := checker.CheckListing(*listing)
		if err != nil {
			return err
		}
		elastic.Persist()

		return printJson(result)
	}

	zap.L().Info("Reconciling all active listings")
	if err := checker.CheckActive(context.Background(), config.Get().ReconcileSize); err != nil {
		return err
	}
	elastic.Persist()
	zap.L().Info("Reconciliation complete")

	return nil
}

func processMismatches(c *cli.Context) error {
	mismatches, total, err := reconciliationRepo.GetMismatches(25, 1)
	if err != nil {
		return err
	}

	zap.S().Infof("Found %d mismatches", total)
	for _, mismatch := range mismatches {
		if err := printJson(mismatch); err != nil {
			return err
		}
	}

	return nil
}

func processListing(c *cli.Context) error {
	chainId, marketplaceAddr, listingId, err := parseListingKey(c.Args().First())
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Invalid listing identifier")
		return nil
	}

	listing, err := listingRepo.GetListing(chainId, marketplaceAddr, listingId)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Listing not found")
		return nil
	}

	return printJson(listing)
}

func processReplay(c *cli.Context) error {
	segments := strings.Split(c.Args().First(), ":")
	if len(segments) != 2 {
		zap.L().Error("Expected chainId:marketplaceAddr")
		return nil
	}

	chainId, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Invalid chain id")
		return nil
	}

	height := c.Uint64("height")

	if err := container.GetRewinder().RewindToHeight(chainId, strings.ToLower(segments[1]), height); err != nil {
		zap.L().With(zap.Error(err)).Error("Rewind failed")
		return err
	}

	zap.S().Infof("Rewound to height %d, the daemon will replay from the new cursor", height)

	return nil
}

func parseListingKey(value string) (uint64, string, uint64, error) {
	segments := strings.Split(value, ":")
	if len(segments) != 3 {
		return 0, "", 0, fmt.Errorf("expected chainId:marketplaceAddr:listingId, got %s", value)
	}

	chainId, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		return 0, "", 0, err
	}

	listingId, err := strconv.ParseUint(segments[2], 10, 64)
	if err != nil {
		return 0, "", 0, err
	}

	return chainId, strings.ToLower(segments[1]), listingId, nil
}

func printJson(payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}
