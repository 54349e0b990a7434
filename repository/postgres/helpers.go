package postgres

import (
	"encoding/json"
	"time"

	"github.com/idforge/backend/domain"
)

func marshalSettings(settings domain.Settings) []byte {
	b, err := json.Marshal(settings)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func marshalStats(stats map[string]int) []byte {
	if len(stats) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func marshalStrings(values []string) []byte {
	if len(values) == 0 {
		return []byte("[]")
	}
	b, err := json.Marshal(values)
	if err != nil {
		return []byte("[]")
	}
	return b
}

func unmarshalSettings(data []byte) domain.Settings {
	var settings domain.Settings
	if len(data) > 0 {
		_ = json.Unmarshal(data, &settings)
	}
	return settings
}

func unmarshalStats(data []byte) map[string]int {
	stats := make(map[string]int)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &stats)
	}
	return stats
}

func unmarshalStrings(data []byte) []string {
	var values []string
	if len(data) > 0 {
		_ = json.Unmarshal(data, &values)
	}
	return values
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
