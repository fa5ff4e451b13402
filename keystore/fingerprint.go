package keystore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fingerprint identifies the device a session key is bound to.
type Fingerprint struct {
	// Fingerprint is the SHA-256 hex digest of the sorted components.
	Fingerprint string `json:"fingerprint"`

	// GeneratedAt is the generation time in Unix milliseconds.
	GeneratedAt int64 `json:"generated_at"`

	// Components are the raw values the fingerprint was derived from.
	Components map[string]string `json:"components"`
}

var (
	fingerprintMu     sync.Mutex
	cachedFingerprint *Fingerprint
)

// DeviceFingerprint returns the fingerprint for this device, computing it on
// first use and caching it for the process lifetime. Server processes need a
// stable fingerprint across calls so envelopes sealed earlier still open.
func DeviceFingerprint() *Fingerprint {
	fingerprintMu.Lock()
	defer fingerprintMu.Unlock()

	if cachedFingerprint == nil {
		cachedFingerprint = generateFingerprint()
	}
	return cachedFingerprint
}

// ResetFingerprintCache clears the cached fingerprint. Intended for tests.
func ResetFingerprintCache() {
	fingerprintMu.Lock()
	defer fingerprintMu.Unlock()
	cachedFingerprint = nil
}

func generateFingerprint() *Fingerprint {
	components := map[string]string{
		"os":   runtime.GOOS,
		"arch": runtime.GOARCH,
	}

	if hostname, err := os.Hostname(); err == nil {
		components["hostname"] = hostname
	}
	if id := machineID(); id != "" {
		components["machine_id"] = id
	}
	components["entropy"] = stableEntropy()

	return &Fingerprint{
		Fingerprint: hashComponents(components),
		GeneratedAt: time.Now().UnixMilli(),
		Components:  components,
	}
}

// hashComponents combines components as sorted "key:value" pairs joined with
// "|" and returns the SHA-256 hex digest, matching the envelope format used
// by the backend's other SDKs.
func hashComponents(components map[string]string) string {
	keys := make([]string, 0, len(components))
	for k := range components {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", k, components[k]))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func machineID() string {
	if data, err := os.ReadFile("/etc/machine-id"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// stableEntropy returns a per-machine random value persisted outside the
// process, so the fingerprint survives restarts.
func stableEntropy() string {
	path := filepath.Join(os.TempDir(), ".zendfi_entropy")

	if data, err := os.ReadFile(path); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v
		}
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err == nil {
		entropy := hex.EncodeToString(buf)
		if err := os.WriteFile(path, []byte(entropy), 0o600); err == nil {
			return entropy
		}
		return entropy
	}

	// Last resort: hash the hostname.
	hostname, _ := os.Hostname()
	sum := sha256.Sum256([]byte(hostname))
	return hex.EncodeToString(sum[:16])
}
