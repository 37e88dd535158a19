// Package clientstate versions the small per-user documents the web client
// persists server-side, such as recent crop assessments and farm tasks.
package clientstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentVersion is the envelope version written by this service.
const CurrentVersion = 1

// Key names a stored document.
type Key string

const (
	CropAssessments Key = "cropAssessments"
	FarmerTasks     Key = "farmerTasks"
)

// limits caps the number of entries kept per key. Zero means unbounded.
var limits = map[Key]int{
	CropAssessments: 5,
	FarmerTasks:     0,
}

var (
	ErrUnknownKey         = errors.New("unknown state key")
	ErrUnsupportedVersion = errors.New("unsupported state version")
	ErrNotList            = errors.New("state data must be a JSON array")
)

// ParseKey validates a key name.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if _, ok := limits[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return k, nil
}

// Envelope wraps a stored list with its schema version.
type Envelope struct {
	Version int               `json:"version"`
	Data    []json.RawMessage `json:"data"`
}

// Empty returns an empty envelope at the current version.
func Empty() Envelope {
	return Envelope{Version: CurrentVersion, Data: []json.RawMessage{}}
}

// Decode reads a stored or submitted document. A bare JSON array is the
// unversioned legacy format and is migrated to the current version.
func Decode(raw []byte) (Envelope, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Empty(), nil
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Envelope{}, fmt.Errorf("failed to decode legacy state: %w", err)
		}
		return migrate(Envelope{Version: 0, Data: items})
	}

	var head struct {
		Version int             `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if head.Version > CurrentVersion || head.Version < 0 {
		return Envelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, head.Version)
	}

	env := Envelope{Version: head.Version, Data: []json.RawMessage{}}
	if len(head.Data) > 0 && !bytes.Equal(bytes.TrimSpace(head.Data), []byte("null")) {
		if err := json.Unmarshal(head.Data, &env.Data); err != nil {
			return Envelope{}, ErrNotList
		}
	}
	return migrate(env)
}

func migrate(env Envelope) (Envelope, error) {
	for env.Version < CurrentVersion {
		switch env.Version {
		case 0:
			// version 0 stored the list itself; the entries are unchanged
			env.Version = 1
		default:
			return Envelope{}, fmt.Errorf("%w: no migration from %d", ErrUnsupportedVersion, env.Version)
		}
	}
	if env.Data == nil {
		env.Data = []json.RawMessage{}
	}
	return env, nil
}

// Normalize applies the per-key entry cap, keeping the leading (newest) entries.
func Normalize(key Key, env Envelope) Envelope {
	if limit := limits[key]; limit > 0 && len(env.Data) > limit {
		env.Data = env.Data[:limit]
	}
	return env
}

// Prepend adds item as the newest entry and applies the key's cap.
func Prepend(key Key, env Envelope, item json.RawMessage) (Envelope, error) {
	if !json.Valid(item) {
		return Envelope{}, errors.New("state item is not valid JSON")
	}
	data := make([]json.RawMessage, 0, len(env.Data)+1)
	data = append(data, item)
	data = append(data, env.Data...)
	env.Data = data
	return Normalize(key, env), nil
}

// Encode serialises env for storage.
func Encode(env Envelope) ([]byte, error) {
	if env.Data == nil {
		env.Data = []json.RawMessage{}
	}
	return json.Marshal(env)
}
