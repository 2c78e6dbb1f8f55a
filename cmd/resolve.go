// File: cmd/resolve.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Royarind/checkout-engine/internal/browser"
	"github.com/Royarind/checkout-engine/internal/config"
	"github.com/Royarind/checkout-engine/internal/observability"
	"github.com/Royarind/checkout-engine/internal/resolve"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// selection is one type=value pair from the command line.
type selection struct {
	Type  string
	Value string
}

// pageReport collects the outcomes for one URL.
type pageReport struct {
	URL      string                     `json:"url"`
	Outcomes map[string]resolve.Outcome `json:"outcomes"`
}

// newResolveCmd creates and configures the `resolve` command.
func newResolveCmd() *cobra.Command {
	var urls []string
	var output string

	resolveCmd := &cobra.Command{
		Use:   "resolve --url URL type=value [type=value...]",
		Short: "Selects product options (color, size, quantity) on the given pages",
		Long: `Resolves each type=value selection against the product page, in order,
and reports a structured outcome per selection. Examples:

  checkout-engine resolve --url https://shop.example.com/p/1 color="Deep Navy" size=XL quantity=2
  checkout-engine resolve --url URL1 --url URL2 "add to cart"="add to cart"`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			if len(urls) == 0 {
				return fmt.Errorf("at least one --url is required")
			}
			selections, err := parseSelections(args)
			if err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			manager, err := browser.NewManager(ctx, logger, cfg)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Browser shutdown reported an error", zap.Error(err))
				}
			}()

			// One tab per URL; selections within a tab run in order, since
			// a size picker may only appear after the color is chosen.
			reports := make([]pageReport, len(urls))
			g, gctx := errgroup.WithContext(ctx)
			for i, url := range urls {
				g.Go(func() error {
					report, err := resolvePage(gctx, manager, cfg, logger, url, selections)
					if err != nil {
						return err
					}
					reports[i] = report
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return writeReports(reports, output)
		},
	}

	resolveCmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "product page URL (repeatable)")
	resolveCmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to a file instead of stdout")
	return resolveCmd
}

// resolvePage opens a tab, navigates, and runs the selections in order.
// Per-selection failures land in the report, not in the returned error.
func resolvePage(ctx context.Context, manager *browser.Manager, cfg *config.Config, logger *zap.Logger, url string, selections []selection) (pageReport, error) {
	session, err := manager.NewSession(ctx)
	if err != nil {
		return pageReport{}, fmt.Errorf("session for %s: %w", url, err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, url); err != nil {
		return pageReport{}, fmt.Errorf("navigate to %s: %w", url, err)
	}

	resolver := resolve.NewResolver(session, logger, resolve.Options{
		MinScore:           cfg.Resolver.MinScore,
		PhaseAttempts:      cfg.Resolver.PhaseAttempts,
		PhaseRetryInterval: cfg.Resolver.PhaseRetryInterval,
		StabilizeAttempts:  cfg.Resolver.StabilizeAttempts,
		ScrollSettle:       cfg.Resolver.ScrollSettle,
		DropdownSettle:     cfg.Resolver.DropdownSettle,
	})

	report := pageReport{URL: url, Outcomes: make(map[string]resolve.Outcome, len(selections))}
	for _, sel := range selections {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Outcomes[sel.Type] = resolver.Resolve(ctx, sel.Type, sel.Value)
	}
	return report, nil
}

// parseSelections turns type=value arguments into ordered selections.
func parseSelections(args []string) ([]selection, error) {
	selections := make([]selection, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("invalid selection %q, expected type=value", arg)
		}
		selections = append(selections, selection{Type: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])})
	}
	return selections, nil
}

func writeReports(reports []pageReport, output string) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if output == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report to %s: %w", output, err)
	}
	return nil
}
