package session

import (
	"strings"

	"github.com/blurtapp/blurt/pkg/errors"
)

// StorageMode selects where sessions and templates live.
type StorageMode string

const (
	// ModeLocal keeps everything in the local file store.
	ModeLocal StorageMode = "local"
	// ModeCloud keeps everything in the cloud store and requires a user.
	ModeCloud StorageMode = "cloud"
	// ModeHybrid writes to the cloud and mirrors to local files.
	ModeHybrid StorageMode = "hybrid"
)

// DefaultMode is used when no mode is configured.
const DefaultMode = ModeLocal

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (StorageMode, error) {
	switch m := StorageMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLocal, ModeCloud, ModeHybrid:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidStorageMode,
		"unknown storage mode %q (want local, cloud or hybrid)", s)
}

// ModeOrDefault parses s, falling back to def for empty or unknown names.
func ModeOrDefault(s string, def StorageMode) StorageMode {
	if m, err := ParseMode(s); err == nil {
		return m
	}
	return def
}

// CloudBacked reports whether the mode reads from the cloud store.
func (m StorageMode) CloudBacked() bool {
	return m == ModeCloud || m == ModeHybrid
}

func (m StorageMode) String() string { return string(m) }
