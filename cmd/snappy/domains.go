package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/snappy-feed/internal/registry"
)

var domainsCmd = &cobra.Command{
	Use:   "domains [host...]",
	Short: "Print the trusted-domain list",
	Long:  "Fetches the trusted-domain registry and prints the validated list. With host arguments, reports whether each host is trusted against that list instead.",
	RunE:  runDomains,
}

var domainsFallback bool

func init() {
	domainsCmd.Flags().BoolVar(&domainsFallback, "fallback", true, "Print the default domains when the registry cannot be fetched")

	rootCmd.AddCommand(domainsCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	reg := registry.New(cfg.RegistryURL, cfg.DefaultDomains, newHTTPClient(cfg, logger), logger)
	ctx := cmd.Context()

	domains, err := reg.FetchDomains(ctx)
	if err != nil {
		if !domainsFallback {
			return fmt.Errorf("failed to fetch trusted domains: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using default domains\n", err)
		domains = reg.DefaultDomains()
	}

	if len(args) > 0 {
		trusted := make(map[string]bool, len(args))
		for _, host := range args {
			trusted[host] = registry.Contains(domains, host)
		}
		return printJSON(cmd, trusted)
	}
	return printJSON(cmd, domains)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
