package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/snappy-feed/internal/metadata"
	"github.com/jonathan/snappy-feed/internal/types"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <id-or-url>...",
	Short: "Resolve metadata records by id or action URL",
	Long:  "Fetches <metadata-url>/<id>.json for each argument. URL arguments are reduced to their last path segment.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMetadata,
}

var metadataConcurrency int

func init() {
	metadataCmd.Flags().IntVar(&metadataConcurrency, "concurrency", 4, "Maximum parallel lookups")

	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	svc := metadata.New(cfg.MetadataURL, newHTTPClient(cfg, logger), logger)

	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := resolveID(svc, arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	var (
		mu      sync.Mutex
		records = make(map[string]*types.Metadata, len(ids))
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	if metadataConcurrency > 0 {
		g.SetLimit(metadataConcurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			md, err := svc.GetMetadataByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch metadata for %s: %w", id, err)
			}
			mu.Lock()
			records[id] = md
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return printJSON(cmd, records)
}

func resolveID(svc *metadata.Service, arg string) (string, error) {
	if !strings.Contains(arg, "://") {
		return arg, nil
	}
	id, ok := svc.ExtractIDFromText(arg)
	if !ok {
		return "", fmt.Errorf("no identifier in URL %s", arg)
	}
	return id, nil
}
