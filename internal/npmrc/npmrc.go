// Package npmrc parses and merges .npmrc configuration files: scoped
// registry routing and per-host auth tokens.
package npmrc

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is a merged .npmrc view: scoped registries and per-host tokens.
type Config struct {
	DefaultRegistry  string
	ScopedRegistries map[string]string // "@scope" -> registry URL
	HostTokens       map[string]string // "host" or "host/path" -> bearer token
}

func newConfig() *Config {
	return &Config{
		DefaultRegistry:  "https://registry.npmjs.org/",
		ScopedRegistries: make(map[string]string),
		HostTokens:       make(map[string]string),
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Load merges projectDir/.npmrc and $HOME/.npmrc, first-wins: a key
// already set by the project file is never overwritten by the home file.
// Directories between projectDir and $HOME are not read.
func Load(projectDir string) (*Config, error) {
	cfg := newConfig()

	home, _ := os.UserHomeDir()
	candidates := []string{filepath.Join(projectDir, ".npmrc")}
	if home != "" && home != projectDir {
		candidates = append(candidates, filepath.Join(home, ".npmrc"))
	}

	seenScope := make(map[string]bool)
	seenHost := make(map[string]bool)
	seenDefault := false

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
				continue
			}
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = expandEnv(strings.Trim(strings.TrimSpace(value), `"'`))

			switch {
			case key == "registry":
				if !seenDefault {
					cfg.DefaultRegistry = value
					seenDefault = true
				}
			case strings.HasPrefix(key, "@") && strings.HasSuffix(key, ":registry"):
				scope := strings.TrimSuffix(key, ":registry")
				if !seenScope[scope] {
					cfg.ScopedRegistries[scope] = value
					seenScope[scope] = true
				}
			case strings.HasPrefix(key, "//") && strings.HasSuffix(key, ":_authToken"):
				host := strings.TrimSuffix(strings.TrimSuffix(strings.TrimPrefix(key, "//"), ":_authToken"), "/")
				if !seenHost[host] {
					cfg.HostTokens[host] = value
					seenHost[host] = true
				}
			}
		}
	}

	return cfg, nil
}

// RegistryFor returns the registry URL a scoped (or unscoped) package name
// should fetch from.
func (c *Config) RegistryFor(packageName string) string {
	if strings.HasPrefix(packageName, "@") {
		if idx := strings.Index(packageName, "/"); idx != -1 {
			scope := packageName[:idx]
			if url, ok := c.ScopedRegistries[scope]; ok {
				return url
			}
		}
	}
	return c.DefaultRegistry
}

// TokenFor returns the bearer token registered for registryURL's full
// host+path, falling back to the one for its bare host; intermediate path
// prefixes are not tried.
func (c *Config) TokenFor(registryURL string) (string, bool) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(registryURL, "https://"), "http://")
	trimmed = strings.TrimSuffix(trimmed, "/")

	if token, ok := c.HostTokens[trimmed]; ok {
		return token, true
	}
	if idx := strings.Index(trimmed, "/"); idx != -1 {
		if token, ok := c.HostTokens[trimmed[:idx]]; ok {
			return token, true
		}
	}
	return "", false
}
