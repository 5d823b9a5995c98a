package query

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/pkg/memory"
)

// Filter is a predicate over memory records. The concrete filters are ByID,
// ByMemoryType, ByMetadata, And and Or.
//
// The JSON form is an object whose keys are AND-ed together:
//
//	{"id": "<uuid>"}
//	{"memory_type": "Semantic"}
//	{"metadata": {"topic": "hobbies"}}
//	{"and": [<filter>, ...]}
//	{"or": [<filter>, ...]}
//
// Unknown keys impose no constraint.
type Filter interface {
	Match(m *memory.Memory) bool

	json.Marshaler
	isFilter()
}

// ByID matches the record with exactly this id.
type ByID struct {
	ID uuid.UUID
}

func (f ByID) Match(m *memory.Memory) bool {
	return m.ID == f.ID
}

func (f ByID) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]uuid.UUID{"id": f.ID})
}

// ByMemoryType matches records whose type variant is Kind.
type ByMemoryType struct {
	Kind memory.Kind
}

func (f ByMemoryType) Match(m *memory.Memory) bool {
	return m.Kind() == f.Kind
}

func (f ByMemoryType) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]memory.Kind{"memory_type": f.Kind})
}

// ByMetadata matches records whose metadata value under Key is equal to
// Value once both are encoded as JSON.
type ByMetadata struct {
	Key   string
	Value any
}

func (f ByMetadata) Match(m *memory.Memory) bool {
	got, ok := m.Metadata[f.Key]
	if !ok {
		return false
	}

	a, err := json.Marshal(got)
	if err != nil {
		return false
	}
	b, err := json.Marshal(f.Value)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (f ByMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]any{"metadata": {f.Key: f.Value}})
}

// And matches when every filter matches. An empty And matches everything.
type And []Filter

func (f And) Match(m *memory.Memory) bool {
	for _, sub := range f {
		if !sub.Match(m) {
			return false
		}
	}
	return true
}

func (f And) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Filter{"and": f})
}

// Or matches when any filter matches. An empty Or matches nothing.
type Or []Filter

func (f Or) Match(m *memory.Memory) bool {
	for _, sub := range f {
		if sub.Match(m) {
			return true
		}
	}
	return false
}

func (f Or) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Filter{"or": f})
}

func (ByID) isFilter()         {}
func (ByMemoryType) isFilter() {}
func (ByMetadata) isFilter()   {}
func (And) isFilter()          {}
func (Or) isFilter()           {}

// ParseFilter decodes the JSON object form of a filter.
func ParseFilter(data []byte) (Filter, error) {
	return parseFilter("filter", data)
}

func parseFilter(field string, data []byte) (Filter, error) {
	var criteria map[string]json.RawMessage
	if err := json.Unmarshal(data, &criteria); err != nil || criteria == nil {
		return nil, invalid(field, "must be an object")
	}

	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var filters And
	for _, key := range keys {
		raw := criteria[key]
		path := field + "." + key

		switch key {
		case "id":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, invalid(path, "must be a string")
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, invalid(path, "%q is not a UUID", s)
			}
			filters = append(filters, ByID{ID: id})

		case "memory_type":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, invalid(path, "must be a string")
			}
			kind, err := memory.ParseKind(s)
			if err != nil {
				return nil, invalid(path, "%v", err)
			}
			filters = append(filters, ByMemoryType{Kind: kind})

		case "metadata":
			var values map[string]any
			if err := json.Unmarshal(raw, &values); err != nil || values == nil {
				return nil, invalid(path, "must be an object")
			}
			metaKeys := make([]string, 0, len(values))
			for k := range values {
				metaKeys = append(metaKeys, k)
			}
			slices.Sort(metaKeys)
			for _, k := range metaKeys {
				filters = append(filters, ByMetadata{Key: k, Value: values[k]})
			}

		case "and", "or":
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, invalid(path, "must be an array of filters")
			}
			subs := make([]Filter, 0, len(items))
			for i, item := range items {
				sub, err := parseFilter(path+"["+strconv.Itoa(i)+"]", item)
				if err != nil {
					return nil, err
				}
				subs = append(subs, sub)
			}
			if key == "and" {
				filters = append(filters, And(subs))
			} else {
				filters = append(filters, Or(subs))
			}
		}
	}

	if len(filters) == 1 {
		return filters[0], nil
	}
	if filters == nil {
		filters = And{}
	}
	return filters, nil
}
