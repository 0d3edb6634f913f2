package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Default lifetimes of cached entries.
const (
	SnapshotTTL = time.Hour
	ArtifactTTL = 24 * time.Hour
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer builds cache keys. A non-empty scope is prepended to every key so
// several tenants can share one Redis.
type Keyer struct {
	Scope string
}

// SnapshotKey addresses the projection of position fetched from baseURL
// with the given group count (0 means automatic).
func (k Keyer) SnapshotKey(baseURL, position string, groups int) string {
	return k.Scope + hashKey("snapshot", strings.TrimRight(baseURL, "/"), position, groups)
}

// ArtifactOpts identifies a rendered output.
type ArtifactOpts struct {
	Format    string   `json:"format"`
	Theme     string   `json:"theme"`
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	Highlight []int    `json:"highlight,omitempty"`
	Select    string   `json:"select,omitempty"`
	Transform string   `json:"transform,omitempty"`
	Extra     []string `json:"extra,omitempty"`
}

// ArtifactKey addresses an output rendered from the snapshot with the given
// content hash.
func (k Keyer) ArtifactKey(snapshotHash string, opts ArtifactOpts) string {
	return k.Scope + hashKey("artifact", snapshotHash, opts)
}
