package apiauth

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

/* Allowlist restricts the internal API surface to known caller IPs.
 * Opt-in: an empty allowlist allows everyone. Loopback is always
 * allowed so same-host health checks keep working regardless of what
 * is configured.
 */
type Allowlist struct {
	ips map[string]struct{}
}

// allowlistFile is the structure of the optional YAML allowlist file
type allowlistFile struct {
	Entries []allowlistEntry `yaml:"entries"`
}

// allowlistEntry is a single named caller in the YAML file
type allowlistEntry struct {
	Name string `yaml:"name"`
	IP   string `yaml:"ip"`
}

// NewAllowlist builds an allowlist from a comma-separated IP list
func NewAllowlist(csv string) *Allowlist {
	a := &Allowlist{ips: make(map[string]struct{})}
	for _, ip := range strings.Split(csv, ",") {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		a.ips[ip] = struct{}{}
	}
	return a
}

// LoadFile merges entries from a YAML allowlist file
func (a *Allowlist) LoadFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading allowlist file: %w", err)
	}

	var file allowlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing allowlist YAML: %w", err)
	}

	for _, entry := range file.Entries {
		ip := strings.TrimSpace(entry.IP)
		if ip == "" {
			return fmt.Errorf("allowlist entry %q has no ip", entry.Name)
		}
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("allowlist entry %q has invalid ip: %s", entry.Name, ip)
		}
		a.ips[ip] = struct{}{}
	}
	return nil
}

// Empty reports whether any IPs are configured
func (a *Allowlist) Empty() bool {
	return len(a.ips) == 0
}

// Allows reports whether the IP may reach the internal API. An empty
// allowlist allows all; loopback is always allowed.
func (a *Allowlist) Allows(ip string) bool {
	if a.Empty() {
		return true
	}
	if isLoopback(ip) {
		return true
	}
	_, ok := a.ips[ip]
	return ok
}

func isLoopback(ip string) bool {
	if ip == "127.0.0.1" || ip == "::1" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

// ClientIP resolves the caller address: first X-Forwarded-For entry,
// then X-Real-IP, then the connection's remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
