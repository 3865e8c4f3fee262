package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/dataset"
)

// GroupOptions controls group synthesis and ordering.
type GroupOptions struct {
	// Canonical emits every combination of the dimensions' canonical values
	// in canonical order, including groups with no members.
	Canonical bool
}

// Group is the aggregate of one field over one group key.
type Group struct {
	Key []string `json:"key"`
	// Size counts records in the group; Count counts non-missing values.
	Size   int               `json:"size"`
	Count  int               `json:"count"`
	Mean   dataset.NullFloat `json:"mean"`
	Median dataset.NullFloat `json:"median"`
}

// Label joins the key values, e.g. "claim | active".
func (g Group) Label() string { return strings.Join(g.Key, " | ") }

// GroupedMetric is a field aggregated over one or two dimensions.
type GroupedMetric struct {
	Dims   []dataset.Dimension `json:"dims"`
	Field  dataset.Field       `json:"field"`
	Groups []Group             `json:"groups"`
}

// Find returns the group with the given key values.
func (m GroupedMetric) Find(key ...string) (Group, bool) {
	for _, g := range m.Groups {
		if equalKey(g.Key, key) {
			return g, true
		}
	}
	return Group{}, false
}

type groupAcc struct {
	key    []string
	size   int
	values []float64
}

// GroupBy aggregates f over the one or two dimensions in dims. Without
// Canonical only observed groups are returned, sorted by key.
func GroupBy(t *dataset.Table, dims []dataset.Dimension, f dataset.Field, opt GroupOptions) (GroupedMetric, error) {
	if len(dims) == 0 || len(dims) > 2 {
		return GroupedMetric{}, fmt.Errorf("group by: need one or two dimensions, got %d", len(dims))
	}
	if len(dims) == 2 && dims[0] == dims[1] {
		return GroupedMetric{}, fmt.Errorf("group by: dimension %s given twice", dims[0])
	}
	if _, err := dataset.ParseField(string(f)); err != nil {
		return GroupedMetric{}, fmt.Errorf("group by: %w", err)
	}
	for _, d := range dims {
		if _, err := dataset.ParseDimension(string(d)); err != nil {
			return GroupedMetric{}, fmt.Errorf("group by: %w", err)
		}
	}

	accs := map[string]*groupAcc{}
	var order []string
	for i := range t.Records {
		r := &t.Records[i]
		key := make([]string, len(dims))
		for j, d := range dims {
			key[j] = r.Label(d)
		}
		k := strings.Join(key, "\x00")
		a := accs[k]
		if a == nil {
			a = &groupAcc{key: key}
			accs[k] = a
			order = append(order, k)
		}
		a.size++
		if v := r.Value(f); v.Valid {
			a.values = append(a.values, v.Float64)
		}
	}

	if opt.Canonical {
		order = order[:0]
		seen := map[string]bool{}
		for _, key := range canonicalKeys(t, dims) {
			k := strings.Join(key, "\x00")
			seen[k] = true
			order = append(order, k)
			if accs[k] == nil {
				accs[k] = &groupAcc{key: key}
			}
		}
		// Observed labels outside the canonical lists are kept at the end.
		var extra []string
		for k := range accs {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		order = append(order, extra...)
	} else {
		sort.Strings(order)
	}

	out := GroupedMetric{Dims: dims, Field: f, Groups: make([]Group, 0, len(order))}
	for _, k := range order {
		a := accs[k]
		g := Group{Key: a.key, Size: a.size, Count: len(a.values)}
		if len(a.values) > 0 {
			s, _ := Summarize(a.values)
			g.Mean = dataset.Some(s.Mean)
			g.Median = dataset.Some(s.Median)
		}
		out.Groups = append(out.Groups, g)
	}
	return out, nil
}

func canonicalKeys(t *dataset.Table, dims []dataset.Dimension) [][]string {
	keys := [][]string{{}}
	for _, d := range dims {
		var next [][]string
		for _, prefix := range keys {
			for _, v := range d.Canonical(t) {
				k := append(append([]string{}, prefix...), v)
				next = append(next, k)
			}
		}
		keys = next
	}
	return keys
}

func equalKey(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
