// Anvil Enchantment Order MCP Server
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rsned/anvil-crafting-server/internal/anvil/catalog"
	"github.com/rsned/anvil-crafting-server/internal/anvil/config"
	"github.com/rsned/anvil-crafting-server/internal/anvil/db"
	"github.com/rsned/anvil-crafting-server/internal/anvil/engine"
	"github.com/rsned/anvil-crafting-server/internal/anvil/export"
	"github.com/rsned/anvil-crafting-server/internal/anvil/mcp"
	"github.com/rsned/anvil-crafting-server/internal/anvil/sync"
	"github.com/rsned/anvil-crafting-server/pkg/anvil"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	if cfg.HasImports() {
		if err := runImports(ctx, logger, sync.NewSyncer(database), cfg); err != nil {
			logger.Error("import failed", "error", err)
			os.Exit(1)
		}
	}

	eng, err := engine.New(ctx, database, engine.Options{
		CacheSize:          cfg.CacheSize,
		Workers:            cfg.Workers,
		ApplyCostModifiers: cfg.ApplyCostModifiers,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	if cfg.ExportBOM != "" {
		if err := exportBOM(ctx, eng, cfg.ExportBOM, cfg.ExportOut); err != nil {
			logger.Error("failed to export bill of materials", "recipe", cfg.ExportBOM, "error", err)
			os.Exit(1)
		}
	}

	if cfg.ComputeAll {
		if err := computeAll(ctx, eng); err != nil {
			logger.Error("failed to compute recipes", "error", err)
			os.Exit(1)
		}
	}

	if cfg.ListCatalog {
		listCatalog(eng.Catalog())
	}

	// One-shot commands exit instead of serving
	if cfg.HasBatchWork() {
		return
	}

	server := mcp.NewServer(eng, logger)

	logger.Info("starting MCP server", "db", cfg.DBPath)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}

func runImports(ctx context.Context, logger *slog.Logger, syncer *sync.Syncer, cfg *config.Config) error {
	if cfg.SeedVanilla {
		seeded, err := syncer.SeedVanilla(ctx)
		if err != nil {
			return fmt.Errorf("seeding vanilla data: %w", err)
		}
		logger.Info("vanilla seed", "seeded", seeded)
	}

	imports := []struct {
		kind string
		path string
		run  func(context.Context, string) error
	}{
		{"enchantments", cfg.ImportEnchantments, syncer.ImportEnchantmentsFromFile},
		{"base items", cfg.ImportBaseItems, syncer.ImportBaseItemsFromFile},
		{"recipes", cfg.ImportRecipes, syncer.ImportRecipesFromFile},
		{"rules", cfg.ImportRules, syncer.ImportRulesFromFile},
	}
	for _, imp := range imports {
		if imp.path == "" {
			continue
		}
		logger.Info("importing "+imp.kind, "file", imp.path)
		if err := imp.run(ctx, imp.path); err != nil {
			return fmt.Errorf("importing %s: %w", imp.kind, err)
		}
		logger.Info(imp.kind + " imported successfully")
	}

	return nil
}

// exportBOM writes a recipe's bill of materials as a spreadsheet when out
// ends in .xlsx, as text to out otherwise, or to stdout when out is empty.
func exportBOM(ctx context.Context, eng *engine.Engine, recipeID, out string) error {
	resp, err := eng.BillOfMaterials(ctx, anvil.BillOfMaterialsRequest{
		RecipeInput: anvil.RecipeInput{RecipeID: recipeID},
	})
	if err != nil {
		return err
	}
	b := &resp.BillOfMaterials

	switch {
	case out == "":
		return export.WriteText(os.Stdout, b)
	case strings.EqualFold(filepath.Ext(out), ".xlsx"):
		return export.WriteXLSX(out, b)
	default:
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := export.WriteText(f, b); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}

func listCatalog(cat *catalog.Catalog) {
	fmt.Println("Enchantments:")
	for _, def := range cat.Enchantments() {
		fmt.Printf("  %-24s %-26s max %-2d book x%d item x%d\n",
			def.ID, def.DisplayName, def.MaxLevel, def.BookMultiplier, def.ItemMultiplier)
	}
	fmt.Println("\nBase items:")
	for _, item := range cat.BaseItems() {
		fmt.Printf("  %-24s %-12s %s\n", item.ItemType, item.Material, item.DisplayName)
	}
}

func computeAll(ctx context.Context, eng *engine.Engine) error {
	summaries, err := eng.ComputeAll(ctx)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		status := "ok"
		cost := fmt.Sprintf("%d levels, %d xp", s.TotalLevelCost, s.TotalXPCost)
		if !s.Valid {
			status = "too expensive"
			cost = "-"
		}
		fmt.Printf("%-32s %-14s steps=%d %s\n", s.RecipeID, status, s.StepCount, cost)
	}
	return nil
}
