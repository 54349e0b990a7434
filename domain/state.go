package domain

import "time"

// warnThresholdPercent is the usage level at which aggregates emit a
// limit-warning event alongside the regular change event.
const warnThresholdPercent = 90

// Settings holds an aggregate's named limits and toggles. It is replaced
// wholesale on update, never partially mutated in place.
type Settings struct {
	Limits map[string]int  `json:"limits,omitempty"`
	Flags  map[string]bool `json:"flags,omitempty"`
}

// Copy returns a detached copy of the settings maps.
func (s Settings) Copy() Settings {
	out := Settings{}
	if s.Limits != nil {
		out.Limits = make(map[string]int, len(s.Limits))
		for k, v := range s.Limits {
			out.Limits[k] = v
		}
	}
	if s.Flags != nil {
		out.Flags = make(map[string]bool, len(s.Flags))
		for k, v := range s.Flags {
			out.Flags[k] = v
		}
	}
	return out
}

// Limit returns the configured limit for key, or 0 (unlimited) when unset.
func (s Settings) Limit(key string) int {
	return s.Limits[key]
}

// Flag returns the configured toggle for key.
func (s Settings) Flag(key string) bool {
	return s.Flags[key]
}

// State is the mutable envelope every aggregate wraps around its root entity:
// the entity itself, the current settings, usage statistics and the domain
// events emitted since the last flush. Mutation goes through the owning
// aggregate only; accessors hand out copies so callers cannot reach inside.
type State[E any] struct {
	entity       E
	settings     Settings
	stats        map[string]int
	lastActivity time.Time
	events       []Event
	lastUpdated  time.Time
}

// NewState wraps an entity with its initial settings and zeroed statistics.
func NewState[E any](entity E, settings Settings) *State[E] {
	return &State[E]{
		entity:      entity,
		settings:    settings.Copy(),
		stats:       make(map[string]int),
		lastUpdated: time.Now(),
	}
}

// RestoreState rebuilds a state envelope from persisted fields. Repositories
// use it when loading an aggregate; the event list starts empty.
func RestoreState[E any](entity E, settings Settings, stats map[string]int, lastUpdated time.Time) *State[E] {
	s := NewState(entity, settings)
	for k, v := range stats {
		s.stats[k] = v
	}
	if !lastUpdated.IsZero() {
		s.lastUpdated = lastUpdated
	}
	return s
}

// Entity returns a copy of the owned root entity.
func (s *State[E]) Entity() E {
	return s.entity
}

// Settings returns a copy of the current settings.
func (s *State[E]) Settings() Settings {
	return s.settings.Copy()
}

// Stats returns a copy of the usage counters.
func (s *State[E]) Stats() map[string]int {
	out := make(map[string]int, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

// Stat returns a single counter value.
func (s *State[E]) Stat(key string) int {
	return s.stats[key]
}

// DomainEvents returns copies of the accumulated, not-yet-flushed events in
// emission order.
func (s *State[E]) DomainEvents() []Event {
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Copy())
	}
	return out
}

// ClearDomainEvents drops the accumulated events after a flush.
func (s *State[E]) ClearDomainEvents() {
	s.events = nil
}

// LastUpdated reports when the most recent mutation happened.
func (s *State[E]) LastUpdated() time.Time {
	return s.lastUpdated
}

// LastActivityAt reports the most recent recorded activity, zero when none.
func (s *State[E]) LastActivityAt() time.Time {
	return s.lastActivity
}

func (s *State[E]) setEntity(entity E) {
	s.entity = entity
	s.touch()
}

func (s *State[E]) replaceSettings(next Settings) {
	s.settings = next.Copy()
	s.touch()
}

func (s *State[E]) setStat(key string, value int) {
	s.stats[key] = value
	s.touch()
}

func (s *State[E]) markActivity() {
	s.lastActivity = time.Now()
	s.touch()
}

func (s *State[E]) touch() {
	s.lastUpdated = time.Now()
}

func (s *State[E]) record(eventType, aggregateID string, payload map[string]interface{}) {
	s.events = append(s.events, NewEvent(eventType, aggregateID, payload))
}

// warnIfNearLimit appends a limit-warning event when the counter has reached
// the warning threshold of its configured limit.
func (s *State[E]) warnIfNearLimit(eventType, aggregateID, statKey, limitKey string) {
	limit := s.settings.Limit(limitKey)
	if limit <= 0 {
		return
	}
	count := s.stats[statKey]
	if count*100 >= limit*warnThresholdPercent {
		s.record(eventType, aggregateID, map[string]interface{}{
			"counter": statKey,
			"count":   count,
			"limit":   limit,
		})
	}
}
