// Package registry implements the consumer side of a skill library:
// fetching and caching the published skills.json manifest, installing
// skills into a local or global skills directory, and environment checks.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/copyleftdev/skilldex/internal/manifest"
	"github.com/copyleftdev/skilldex/internal/models"
)

// staleAfter is how old a cached manifest may be before doctor flags it.
const staleAfter = 7 * 24 * time.Hour

// skillsDirName is the conventional install location inside a .claude dir.
const skillsDirName = "skills"

// Client talks to a remote skill registry.
type Client struct {
	manifestURL string
	cacheDir    string
	httpc       *http.Client
}

// NewClient creates a registry client. cacheDir is created lazily.
func NewClient(manifestURL, cacheDir string) *Client {
	return &Client{
		manifestURL: manifestURL,
		cacheDir:    cacheDir,
		httpc:       &http.Client{Timeout: 30 * time.Second},
	}
}

// ManifestPath returns the on-disk location of the cached manifest.
func (c *Client) ManifestPath() string {
	return filepath.Join(c.cacheDir, manifest.FileName)
}

// FetchManifest downloads the manifest from the registry and caches it.
func (c *Client) FetchManifest(ctx context.Context) (*models.Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry: fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry: fetch manifest: unexpected status %s", resp.Status)
	}

	var m models.Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("registry: parse manifest: %w", err)
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("registry: create cache dir: %w", err)
	}
	if err := manifest.Write(&m, c.ManifestPath()); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest returns the cached manifest, fetching it on cache miss.
func (c *Client) LoadManifest(ctx context.Context) (*models.Manifest, error) {
	if _, err := os.Stat(c.ManifestPath()); err == nil {
		return manifest.Load(c.ManifestPath())
	}
	return c.FetchManifest(ctx)
}

// ManifestAge returns how long ago the cached manifest was written.
func (c *Client) ManifestAge() (time.Duration, error) {
	info, err := os.Stat(c.ManifestPath())
	if err != nil {
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}

// Install downloads every file of skill from rawBaseURL into targetDir.
// Progress (if non-nil) is called once per file.
func (c *Client) Install(ctx context.Context, skill *models.Skill, rawBaseURL, targetDir string, progress func(file string)) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("registry: create target dir: %w", err)
	}
	for _, file := range skill.Files {
		if progress != nil {
			progress(file)
		}
		url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(rawBaseURL, "/"), skill.Path, file)
		data, err := c.fetchFile(ctx, url)
		if err != nil {
			return fmt.Errorf("registry: fetch %s: %w", file, err)
		}
		if err := os.WriteFile(filepath.Join(targetDir, file), data, 0o644); err != nil {
			return fmt.Errorf("registry: write %s: %w", file, err)
		}
	}
	return nil
}

func (c *Client) fetchFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Ping reports whether the registry manifest URL is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("registry: unexpected status %s", resp.Status)
	}
	return nil
}

// SkillLocations returns the project-local skills dir (empty when the
// working directory has no .claude dir) and the global skills dir.
func SkillLocations() (local string, global string) {
	if home, err := os.UserHomeDir(); err == nil {
		global = filepath.Join(home, ".claude", skillsDirName)
	}
	if cwd, err := os.Getwd(); err == nil {
		claudeDir := filepath.Join(cwd, ".claude")
		if info, statErr := os.Stat(claudeDir); statErr == nil && info.IsDir() {
			local = filepath.Join(claudeDir, skillsDirName)
		}
	}
	return local, global
}

// ResolveSkillsDir picks the install root: project-local when a .claude
// directory exists in the working directory, otherwise global.
// forceGlobal skips the local check.
func ResolveSkillsDir(forceGlobal bool) (string, error) {
	local, global := SkillLocations()
	if !forceGlobal && local != "" {
		return local, nil
	}
	if global == "" {
		return "", fmt.Errorf("registry: could not determine home directory")
	}
	return global, nil
}

// safeSkillName rejects names that would escape the skills directory.
func safeSkillName(name string) error {
	if name == "" {
		return fmt.Errorf("registry: skill name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return fmt.Errorf("registry: invalid skill name: %s", name)
	}
	return nil
}

// FindInstalled returns the installed path of a skill, checking the
// project-local dir first, then global. Empty string when not installed.
func FindInstalled(name string) (string, error) {
	if err := safeSkillName(name); err != nil {
		return "", err
	}
	local, global := SkillLocations()
	for _, root := range []string{local, global} {
		if root == "" {
			continue
		}
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p, nil
		}
	}
	return "", nil
}

// Uninstall removes an installed skill directory and returns its path.
func Uninstall(name string) (string, error) {
	p, err := FindInstalled(name)
	if err != nil {
		return "", err
	}
	if p == "" {
		return "", fmt.Errorf("registry: skill %q is not installed", name)
	}
	if err := os.RemoveAll(p); err != nil {
		return "", fmt.Errorf("registry: remove %s: %w", p, err)
	}
	return p, nil
}

// CountSkills counts installed skill directories under dir.
func CountSkills(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}

// Check is one doctor finding.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

// Doctor inspects the local setup and returns one check per concern:
// cache dir, manifest freshness, install locations, registry reachability.
func (c *Client) Doctor(ctx context.Context) []Check {
	var checks []Check

	if _, err := os.Stat(c.cacheDir); err == nil {
		checks = append(checks, Check{Name: "cache directory", Status: "ok", Detail: c.cacheDir})
	} else {
		checks = append(checks, Check{
			Name: "cache directory", Status: "warn",
			Detail: "cache directory does not exist",
			Fix:    "run the update command",
		})
	}

	if age, err := c.ManifestAge(); err != nil {
		checks = append(checks, Check{
			Name: "skill index", Status: "warn",
			Detail: "no cached manifest",
			Fix:    "run the update command",
		})
	} else if age >= staleAfter {
		checks = append(checks, Check{
			Name: "skill index", Status: "warn",
			Detail: fmt.Sprintf("%d days old", int(age.Hours()/24)),
			Fix:    "run the update command",
		})
	} else {
		checks = append(checks, Check{
			Name: "skill index", Status: "ok",
			Detail: fmt.Sprintf("%d days old", int(age.Hours()/24)),
		})
	}

	local, global := SkillLocations()
	if local != "" || dirExists(global) {
		checks = append(checks, Check{Name: "install locations", Status: "ok"})
	} else {
		checks = append(checks, Check{
			Name: "install locations", Status: "warn",
			Detail: "no skill directories found",
			Fix:    "run the init command",
		})
	}

	if err := c.Ping(ctx); err != nil {
		checks = append(checks, Check{
			Name: "registry", Status: "fail",
			Detail: err.Error(),
			Fix:    "check your network connection",
		})
	} else {
		checks = append(checks, Check{Name: "registry", Status: "ok"})
	}

	return checks
}

func dirExists(p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
