package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/copyleftdev/skilldex/internal"
	"github.com/copyleftdev/skilldex/internal/index"
	"github.com/copyleftdev/skilldex/internal/manifest"
	"github.com/copyleftdev/skilldex/internal/mcpserver"
	"github.com/copyleftdev/skilldex/internal/models"
	"github.com/copyleftdev/skilldex/internal/registry"
	"github.com/copyleftdev/skilldex/internal/search"
	"github.com/copyleftdev/skilldex/internal/storage"
	"github.com/copyleftdev/skilldex/internal/validate"
	pkgconfig "github.com/copyleftdev/skilldex/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		// An explicit --config must exist.
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func cacheDir(cfg *internal.Config) string {
	if cfg.Registry.CacheDir != "" {
		return cfg.Registry.CacheDir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ".skilldex-cache"
	}
	return filepath.Join(base, "skilldex")
}

func newRegistryClient(cfg *internal.Config) *registry.Client {
	return registry.NewClient(cfg.Registry.ManifestURL, cacheDir(cfg))
}

// loadCatalog returns the cached manifest, fetching on cache miss, and
// prints a staleness hint when the cache is old.
func loadCatalog(ctx context.Context, client *registry.Client) (*models.Manifest, error) {
	m, err := client.LoadManifest(ctx)
	if err != nil {
		return nil, err
	}
	if age, ageErr := client.ManifestAge(); ageErr == nil && age >= 7*24*time.Hour {
		fmt.Fprintf(os.Stderr, "hint: skill index is %d days old, run 'skilldex update'\n", int(age.Hours()/24))
	}
	return m, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openLibrary(cfg *internal.Config) (storage.Provider, error) {
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return storage.NewFS(cfg.Library.Path)
}

var configFlag = &cli.StringFlag{
	Name:        "config",
	Aliases:     []string{"c"},
	Usage:       "Path to config file",
	DefaultText: "config/config.yaml",
	Value:       "config/config.yaml",
	Sources:     cli.EnvVars("APP_CONFIG_FILE"),
}

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Usage: "Output format: text or json",
	Value: "text",
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// MCP uses stdout for the protocol; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(store, db).ServeStdio()
}

func manifestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	m, err := manifest.Generate(store, cfg.Registry.Repository, cfg.Registry.RawBaseURL)
	if err != nil {
		return err
	}

	out := cmd.String("output")
	if out == "-" {
		return printJSON(m)
	}
	if out == "" {
		out = filepath.Join(cfg.Library.Path, manifest.FileName)
	}
	if err := manifest.Write(m, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d skills)\n", out, m.SkillCount)
	return nil
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	report, err := validate.Library(store)
	if err != nil {
		return err
	}

	if cmd.String("format") == "json" {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		for _, issue := range report.Issues {
			fmt.Printf("%s: %s: %s\n", issue.Severity, issue.Path, issue.Message)
		}
		fmt.Printf("scanned %d documents, %d skills: %d errors, %d warnings\n",
			report.ScannedDocs, report.ScannedSkills, report.Errors(), report.Warnings())
	}
	if !report.OK() {
		return cli.Exit("validation failed", 1)
	}
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadCatalog(ctx, newRegistryClient(cfg))
	if err != nil {
		return err
	}

	category := cmd.String("category")
	var skills []models.Skill
	for _, s := range m.Skills {
		if category != "" && s.Category != category {
			continue
		}
		skills = append(skills, s)
	}

	if cmd.String("format") == "json" {
		return printJSON(skills)
	}
	for _, s := range skills {
		fmt.Printf("%-40s %s\n", s.Name, s.Description)
	}
	fmt.Printf("\n%d skills\n", len(skills))
	return nil
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return cli.Exit("usage: skilldex search <query>", 1)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadCatalog(ctx, newRegistryClient(cfg))
	if err != nil {
		return err
	}

	results := search.Rank(m, query)
	if cmd.String("format") == "json" {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Printf("no skills match %q\n", query)
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-40s %s\n", r.Skill.Name, r.Skill.Description)
	}
	return nil
}

func infoAction(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return cli.Exit("usage: skilldex info <name>", 1)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadCatalog(ctx, newRegistryClient(cfg))
	if err != nil {
		return err
	}

	skill := m.Find(name)
	if skill == nil {
		msg := fmt.Sprintf("skill %q not found", name)
		if suggestions := search.Suggest(m, name); len(suggestions) > 0 {
			msg += fmt.Sprintf(", did you mean: %s", strings.Join(suggestions, ", "))
		}
		return cli.Exit(msg, 1)
	}

	if cmd.String("format") == "json" {
		return printJSON(skill)
	}
	fmt.Printf("Name:        %s\n", skill.Name)
	fmt.Printf("Description: %s\n", skill.Description)
	fmt.Printf("Category:    %s\n", skill.Category)
	if skill.Subcategory != "" {
		fmt.Printf("Subcategory: %s\n", skill.Subcategory)
	}
	fmt.Printf("Path:        %s\n", skill.Path)
	fmt.Printf("Files:       %s\n", strings.Join(skill.Files, ", "))
	fmt.Printf("Tags:        %s\n", strings.Join(skill.Tags, ", "))
	if installed, _ := registry.FindInstalled(skill.Name); installed != "" {
		fmt.Printf("Installed:   %s\n", installed)
	}
	return nil
}

func installAction(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return cli.Exit("usage: skilldex install <name>", 1)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newRegistryClient(cfg)
	m, err := loadCatalog(ctx, client)
	if err != nil {
		return err
	}

	skill := m.Find(name)
	if skill == nil {
		msg := fmt.Sprintf("skill %q not found", name)
		if suggestions := search.Suggest(m, name); len(suggestions) > 0 {
			msg += fmt.Sprintf(", did you mean: %s", strings.Join(suggestions, ", "))
		}
		return cli.Exit(msg, 1)
	}

	skillsDir, err := registry.ResolveSkillsDir(cmd.Bool("global"))
	if err != nil {
		return err
	}
	targetDir := filepath.Join(skillsDir, skill.Name)

	rawBaseURL := m.RawBaseURL
	if rawBaseURL == "" {
		rawBaseURL = cfg.Registry.RawBaseURL
	}
	err = client.Install(ctx, skill, rawBaseURL, targetDir, func(file string) {
		fmt.Printf("  fetching %s\n", file)
	})
	if err != nil {
		return err
	}
	fmt.Printf("installed %s to %s\n", skill.Name, targetDir)
	return nil
}

func uninstallAction(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return cli.Exit("usage: skilldex uninstall <name>", 1)
	}

	installed, err := registry.FindInstalled(name)
	if err != nil {
		return err
	}
	if installed == "" {
		return cli.Exit(fmt.Sprintf("skill %q is not installed", name), 1)
	}

	if !cmd.Bool("yes") {
		fmt.Printf("remove %s? [y/N] ", installed)
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil || !strings.HasPrefix(strings.ToLower(answer), "y") {
			fmt.Println("aborted")
			return nil
		}
	}

	p, err := registry.Uninstall(name)
	if err != nil {
		return err
	}
	fmt.Printf("removed %s\n", p)
	return nil
}

func updateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := newRegistryClient(cfg)
	m, err := client.FetchManifest(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("updated skill index: %d skills (generated %s)\n", m.SkillCount, m.GeneratedAt)
	return nil
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	skillsDir := filepath.Join(cwd, ".claude", "skills")
	if err := os.MkdirAll(skillsDir, 0o755); err != nil {
		return fmt.Errorf("create skills dir: %w", err)
	}
	fmt.Printf("initialized %s\n", skillsDir)
	return nil
}

func whereAction(ctx context.Context, cmd *cli.Command) error {
	local, global := registry.SkillLocations()
	if local != "" {
		fmt.Printf("local:  %s (%d skills)\n", local, registry.CountSkills(local))
	} else {
		fmt.Println("local:  not initialized (run 'skilldex init')")
	}
	if global != "" {
		fmt.Printf("global: %s (%d skills)\n", global, registry.CountSkills(global))
	}
	return nil
}

func doctorAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	checks := newRegistryClient(cfg).Doctor(ctx)

	if cmd.String("format") == "json" {
		return printJSON(checks)
	}
	failed := false
	for _, c := range checks {
		mark := "ok"
		switch c.Status {
		case "warn":
			mark = "warn"
		case "fail":
			mark = "FAIL"
			failed = true
		}
		line := fmt.Sprintf("[%s] %s", mark, c.Name)
		if c.Detail != "" {
			line += ": " + c.Detail
		}
		fmt.Println(line)
		if c.Fix != "" {
			fmt.Printf("       fix: %s\n", c.Fix)
		}
	}
	if failed {
		return cli.Exit("some checks failed", 1)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "skilldex",
		Usage: "Curated skill library: serve, validate, and install Markdown skills",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server with live file watching",
				Flags:  []cli.Flag{configFlag},
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Flags:  []cli.Flag{configFlag},
				Action: mcpAction,
			},
			{
				Name:  "manifest",
				Usage: "Generate skills.json from the library",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file ('-' for stdout)"},
				},
				Action: manifestAction,
			},
			{
				Name:   "validate",
				Usage:  "Lint the library: frontmatter, links, catalog drift",
				Flags:  []cli.Flag{configFlag, formatFlag},
				Action: validateAction,
			},
			{
				Name:  "list",
				Usage: "List skills from the registry catalog",
				Flags: []cli.Flag{
					configFlag,
					formatFlag,
					&cli.StringFlag{Name: "category", Usage: "Filter by category"},
				},
				Action: listAction,
			},
			{
				Name:      "search",
				Usage:     "Fuzzy-search the registry catalog",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{configFlag, formatFlag},
				Action:    searchAction,
			},
			{
				Name:      "info",
				Usage:     "Show details for one skill",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{configFlag, formatFlag},
				Action:    infoAction,
			},
			{
				Name:      "install",
				Usage:     "Install a skill into the local or global skills directory",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{Name: "global", Aliases: []string{"g"}, Usage: "Install into the global skills directory"},
				},
				Action: installAction,
			},
			{
				Name:      "uninstall",
				Usage:     "Remove an installed skill",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: uninstallAction,
			},
			{
				Name:   "update",
				Usage:  "Refresh the cached skill index from the registry",
				Flags:  []cli.Flag{configFlag},
				Action: updateAction,
			},
			{
				Name:   "init",
				Usage:  "Create a project-local .claude/skills directory",
				Action: initAction,
			},
			{
				Name:   "where",
				Usage:  "Show skill install locations",
				Action: whereAction,
			},
			{
				Name:   "doctor",
				Usage:  "Check the local setup and registry connectivity",
				Flags:  []cli.Flag{configFlag, formatFlag},
				Action: doctorAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
