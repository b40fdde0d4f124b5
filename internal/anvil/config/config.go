// Package config loads server settings from flags, the environment and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDBPath is where the SQLite database lives unless configured otherwise.
const DefaultDBPath = "data/anvil/anvil.db"

// Config holds everything the server binary needs at startup.
type Config struct {
	DBPath string

	ImportEnchantments string
	ImportBaseItems    string
	ImportRecipes      string
	ImportRules        string
	SeedVanilla        bool

	ExportBOM   string
	ExportOut   string
	ComputeAll  bool
	ListCatalog bool

	LogLevel           slog.Level
	CacheSize          int
	Workers            int
	ApplyCostModifiers bool
}

// HasImports reports whether any import or seed step was requested.
func (c *Config) HasImports() bool {
	return c.ImportEnchantments != "" || c.ImportBaseItems != "" || c.ImportRecipes != "" ||
		c.ImportRules != "" || c.SeedVanilla
}

// HasBatchWork reports whether the binary should exit after imports and
// one-shot commands instead of serving.
func (c *Config) HasBatchWork() bool {
	return c.HasImports() || c.ExportBOM != "" || c.ComputeAll || c.ListCatalog
}

// Load parses args (without the program name) after reading envFiles, which
// default to ".env". Missing env files are ignored. Variables already set in
// the environment win over env files, environment variables win over flag
// defaults, and flags given explicitly win over everything.
func Load(args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	var verbose bool

	fsFlags := flag.NewFlagSet("anvil-server", flag.ContinueOnError)
	fsFlags.StringVar(&cfg.DBPath, "db", DefaultDBPath, "Path to SQLite database")
	fsFlags.StringVar(&cfg.ImportEnchantments, "import-enchantments", "", "Import enchantment definitions from JSON file")
	fsFlags.StringVar(&cfg.ImportBaseItems, "import-base-items", "", "Import base items from JSON file")
	fsFlags.StringVar(&cfg.ImportRecipes, "import-recipes", "", "Import recipes from JSON file")
	fsFlags.StringVar(&cfg.ImportRules, "import-rules", "", "Import rules from YAML or JSON file")
	fsFlags.BoolVar(&cfg.SeedVanilla, "seed-vanilla", false, "Seed vanilla enchantments and base items into an empty database")
	fsFlags.StringVar(&cfg.ExportBOM, "export-bom", "", "Write the bill of materials for a recipe ID and exit")
	fsFlags.StringVar(&cfg.ExportOut, "export-out", "", "Destination for -export-bom; .xlsx writes a spreadsheet, empty writes text to stdout")
	fsFlags.BoolVar(&cfg.ComputeAll, "compute-all", false, "Optimize every stored recipe and report the results")
	fsFlags.BoolVar(&cfg.ListCatalog, "list-catalog", false, "Print the loaded enchantments and base items")
	fsFlags.IntVar(&cfg.CacheSize, "cache-size", 1024, "Number of recipe results to cache")
	fsFlags.IntVar(&cfg.Workers, "workers", 4, "Parallel workers for -compute-all")
	fsFlags.BoolVar(&cfg.ApplyCostModifiers, "apply-cost-modifiers", false, "Apply cost modifier rules when optimizing")
	fsFlags.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	if err := fsFlags.Parse(args); err != nil {
		return nil, err
	}

	explicit := map[string]bool{}
	fsFlags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if v := strings.TrimSpace(os.Getenv("ANVIL_DB_PATH")); v != "" && !explicit["db"] {
		cfg.DBPath = v
	}
	if err := envInt("ANVIL_CACHE_SIZE", &cfg.CacheSize, explicit["cache-size"]); err != nil {
		return nil, err
	}
	if err := envInt("ANVIL_WORKERS", &cfg.Workers, explicit["workers"]); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("ANVIL_APPLY_COST_MODIFIERS")); v != "" && !explicit["apply-cost-modifiers"] {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("ANVIL_APPLY_COST_MODIFIERS: %w", err)
		}
		cfg.ApplyCostModifiers = b
	}

	cfg.LogLevel = slog.LevelInfo
	if v := strings.TrimSpace(os.Getenv("ANVIL_LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("ANVIL_LOG_LEVEL: %w", err)
		}
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	if cfg.CacheSize <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", cfg.CacheSize)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}

	return cfg, nil
}

func envInt(name string, dst *int, flagSet bool) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" || flagSet {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}
