package store

import (
	"encoding/json"
	"log/slog"
)

// encodeTags serializes tags for the tags TEXT column. A nil slice is stored
// as an empty array.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTags is the inverse of encodeTags. Rows with an unreadable encoding
// come back with no tags rather than failing the read.
func decodeTags(itemID, raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		slog.Warn("ignoring malformed tags", "item_id", itemID, "error", err)
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}
