package dataset

// Table is an ordered collection of records loaded from one source.
type Table struct {
	Name    string
	Records []Record
	// Read counts data rows seen in the source; Dropped counts the rows
	// skipped as incomplete.
	Read    int
	Dropped int

	derived bool
}

// NewTable builds a table from records and derives engagement rates.
func NewTable(name string, records []Record) *Table {
	t := &Table{Name: name, Records: records, Read: len(records)}
	t.DeriveRates()
	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// DeriveRates attaches likes/comments/shares per view to every record.
// A zero view count leaves the rates missing. Calling it again is a no-op.
func (t *Table) DeriveRates() {
	if t.derived {
		return
	}
	for i := range t.Records {
		t.Records[i].deriveRates()
	}
	t.derived = true
}

// Values returns the non-missing values of f.
func (t *Table) Values(f Field) []float64 {
	out := make([]float64, 0, len(t.Records))
	for i := range t.Records {
		if v := t.Records[i].Value(f); v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Filter returns a sub-table with the records matching keep.
func (t *Table) Filter(keep func(*Record) bool) *Table {
	sub := &Table{Name: t.Name, derived: t.derived}
	for i := range t.Records {
		if keep(&t.Records[i]) {
			sub.Records = append(sub.Records, t.Records[i])
		}
	}
	sub.Read = len(sub.Records)
	return sub
}

// WhereClaim returns the records with the given claim status.
func (t *Table) WhereClaim(s ClaimStatus) *Table {
	return t.Filter(func(r *Record) bool { return r.ClaimStatus == s })
}

// WhereBan returns the records with the given author ban status.
func (t *Table) WhereBan(s BanStatus) *Table {
	return t.Filter(func(r *Record) bool { return r.AuthorBanStatus == s })
}
