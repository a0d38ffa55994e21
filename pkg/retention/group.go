package retention

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultDelimiter joins the values of a multi-dimension group key.
const DefaultDelimiter = "_"

// JoinGroupKey builds the composite key of one combination of dimension
// values. A single value is used as is. With two or more values, none may
// contain the delimiter, otherwise the key could not be split back.
func JoinGroupKey(values []string, delim string) (string, error) {
	if len(values) == 1 {
		return values[0], nil
	}
	for _, v := range values {
		if strings.Contains(v, delim) {
			return "", fmt.Errorf("%w: value %q contains delimiter %q", ErrAmbiguousGroupKey, v, delim)
		}
	}
	return strings.Join(values, delim), nil
}

// SplitGroupKey splits a composite key back into its n dimension values.
func SplitGroupKey(key, delim string, n int) ([]string, error) {
	if n == 1 {
		return []string{key}, nil
	}
	parts := strings.Split(key, delim)
	if len(parts) != n {
		return nil, fmt.Errorf("%w: key %q splits into %d values, want %d", ErrAmbiguousGroupKey, key, len(parts), n)
	}
	return parts, nil
}

type groupScope struct {
	presence  *PresenceMatrix
	frequency *FrequencyMatrix
}

// buildGroupScopes partitions rows by composite group key and builds the
// presence and frequency matrices of every group. Rows missing a value for
// any dimension take no part in the grouped scope.
func buildGroupScopes(cfg Config, periods []Period, rows []bucketed) (map[string]*groupScope, []bucketed, error) {
	scopes := make(map[string]*groupScope)
	grouped := make([]bucketed, 0, len(rows))

	for _, r := range rows {
		if len(r.event.Groups) != len(cfg.GroupBy) {
			return nil, nil, fmt.Errorf("event for %q has %d group values, want %d", r.event.Entity, len(r.event.Groups), len(cfg.GroupBy))
		}
		if hasEmpty(r.event.Groups) {
			continue
		}
		key, err := JoinGroupKey(r.event.Groups, cfg.Delimiter)
		if err != nil {
			return nil, nil, err
		}

		s, ok := scopes[key]
		if !ok {
			s = &groupScope{
				presence:  NewPresenceMatrix(periods),
				frequency: NewFrequencyMatrix(periods),
			}
			scopes[key] = s
		}
		s.presence.Mark(r.event.Entity, r.column)
		if !r.event.RollUp {
			s.frequency.Add(r.event.Entity, r.column, r.event.PostID)
		}

		r.key = key
		grouped = append(grouped, r)
	}
	return scopes, grouped, nil
}

func summarizeGroups(cfg Config, scopes map[string]*groupScope) ([]*GroupAggregate, error) {
	keys := make([]string, 0, len(scopes))
	for k := range scopes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*GroupAggregate, 0, len(keys))
	for _, k := range keys {
		values, err := SplitGroupKey(k, cfg.Delimiter, len(cfg.GroupBy))
		if err != nil {
			return nil, err
		}
		out = append(out, &GroupAggregate{
			Key:       k,
			Values:    values,
			Aggregate: Summarize(scopes[k].presence),
		})
	}
	return out, nil
}

func hasEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
