package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"relcore/pkg/config"
	"relcore/pkg/cursor"
	"relcore/pkg/execution"
	"relcore/pkg/execution/scalar"
	"relcore/pkg/logging"
	"relcore/pkg/plan"
	"relcore/pkg/ui"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	listingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			PaddingLeft(2)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Italic(true)
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := logging.Init(cfg.Logging()); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	ctx := execution.NewContext(cfg.Seed)
	ops := scalar.NewRegistry(ctx)

	tm, err := loadTables()
	if err != nil {
		log.Fatalf("Failed to load demo tables: %v", err)
	}
	scenarios, err := buildScenarios(tm, ops, cfg.Difference)
	if err != nil {
		log.Fatalf("Failed to build demo relations: %v", err)
	}

	if cfg.Browse {
		if err := startBrowser(scenarios, cfg.Request()); err != nil {
			log.Fatalf("Failed to start UI: %v", err)
		}
		return
	}

	if err := runScenarios(scenarios, cfg.Request()); err != nil {
		log.Fatalf("Demo failed: %v", err)
	}
}

// runScenarios evaluates every scenario concurrently and prints the results
// in declaration order.
func runScenarios(scenarios []scenario, req cursor.Request) error {
	outcomes := make([]outcome, len(scenarios))
	g, _ := errgroup.WithContext(context.Background())
	for i, s := range scenarios {
		g.Go(func() error {
			out, err := s.run(req)
			if err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, s := range scenarios {
		printOutcome(s.name, outcomes[i])
	}
	return nil
}

func printOutcome(name string, out outcome) {
	fmt.Println(headingStyle.Render("▶ " + name))
	fmt.Println(listingStyle.Render(strings.TrimRight(out.listing, "\n")))
	fmt.Println(rowStyle.Render("  " + strings.Join(out.columns, " | ")))
	for _, row := range out.rows {
		fmt.Println(rowStyle.Render("  " + strings.Join(row, " | ")))
	}
	for _, note := range out.extra {
		fmt.Println(noteStyle.Render("  " + note))
	}
	fmt.Println()
}

// startBrowser launches the Bubble Tea cursor browser over the scenarios.
// Browsing steps backwards, so every source asks for it.
func startBrowser(scenarios []scenario, req cursor.Request) error {
	req.Capabilities |= cursor.BackwardsNavigable

	sources := make([]ui.Source, len(scenarios))
	for i, s := range scenarios {
		listing, err := plan.ExplainString(s.arena, s.root)
		if err != nil {
			return err
		}
		sources[i] = ui.Source{
			Name:    s.name,
			Listing: listing,
			Bind: func() (cursor.Cursor, error) {
				return plan.Bind(s.arena, s.root, req)
			},
		}
	}

	p := tea.NewProgram(
		ui.NewModel(sources),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %v", err)
	}
	return nil
}
