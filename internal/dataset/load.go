package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column names of the fixed input schema.
const (
	ColID       = "#"
	ColClaim    = "claim_status"
	ColVerified = "verified_status"
	ColBan      = "author_ban_status"
)

// RequiredColumns lists every column the loader needs, in schema order.
var RequiredColumns = []string{
	ColID,
	ColClaim,
	string(Duration), string(Views), string(Likes), string(Comments), string(Shares), string(Downloads),
	ColVerified,
	ColBan,
}

// LoadOptions controls how a source is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// DropIncomplete skips rows with a blank required cell instead of failing.
	DropIncomplete bool
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// RowIterator yields raw rows, header first. Next returns io.EOF when done.
type RowIterator interface {
	Next() ([]string, error)
	Close() error
}

// Reader opens a dataset file as a row stream.
type Reader interface {
	CanRead(filename string) bool
	Open(path string, opt LoadOptions) (RowIterator, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Open loads the dataset at path with the first reader accepting its name.
func Open(path string, opt LoadOptions) (*Table, error) {
	for _, r := range registry {
		if !r.CanRead(path) {
			continue
		}
		it, err := r.Open(path, opt)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		return decode(filepath.Base(path), it, opt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

// LoadCSV reads CSV content from r.
func LoadCSV(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	return decode(name, newCSVRows(r, delim, nil), opt)
}

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Open(path string, opt LoadOptions) (RowIterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return newCSVRows(f, delim, f), nil
}

type csvRows struct {
	r      *csv.Reader
	closer io.Closer
}

func newCSVRows(r io.Reader, delim rune, closer io.Closer) *csvRows {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	return &csvRows{r: cr, closer: closer}
}

func (c *csvRows) Next() ([]string, error) { return c.r.Read() }

func (c *csvRows) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// decode maps the header to the schema and parses every data row.
func decode(name string, it RowIterator, opt LoadOptions) (*Table, error) {
	header, err := it.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MissingColumnError{Columns: RequiredColumns}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	t := &Table{Name: name}
	line := 1
	for {
		rec, err := it.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var re *RowError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		if blankRow(rec) {
			continue
		}
		t.Read++
		cell := func(col string) string {
			idx := index[col]
			if idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		if opt.DropIncomplete && incomplete(cell) {
			t.Dropped++
			continue
		}
		r, err := parseRecord(line, cell)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, r)
	}
	t.DeriveRates()
	return t, nil
}

func blankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func incomplete(cell func(string) string) bool {
	for _, col := range RequiredColumns {
		if cell(col) == "" {
			return true
		}
	}
	return false
}

func parseRecord(line int, cell func(string) string) (Record, error) {
	var r Record
	rowErr := func(col, val string, err error) error {
		return &RowError{Line: line, Column: col, Value: val, Err: err}
	}
	for _, col := range RequiredColumns {
		if cell(col) == "" {
			return r, rowErr(col, "", ErrEmptyValue)
		}
	}

	idRaw := cell(ColID)
	id, err := parseInt(idRaw)
	if err != nil {
		return r, rowErr(ColID, idRaw, ErrInvalidNumber)
	}
	r.ID = id

	claimRaw := strings.ToLower(cell(ColClaim))
	claim, ok := parseClaimStatus(claimRaw)
	if !ok {
		return r, rowErr(ColClaim, cell(ColClaim), ErrUnknownEnum)
	}
	r.ClaimStatus = claim

	banRaw := strings.ToLower(cell(ColBan))
	ban, ok := parseBanStatus(banRaw)
	if !ok {
		return r, rowErr(ColBan, cell(ColBan), ErrUnknownEnum)
	}
	r.AuthorBanStatus = ban
	r.VerifiedStatus = VerifiedStatus(strings.ToLower(cell(ColVerified)))

	targets := map[Field]*float64{
		Duration:  &r.Duration,
		Views:     &r.Views,
		Likes:     &r.Likes,
		Comments:  &r.Comments,
		Shares:    &r.Shares,
		Downloads: &r.Downloads,
	}
	for _, f := range RawFields {
		raw := cell(string(f))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return r, rowErr(string(f), raw, ErrInvalidNumber)
		}
		if v < 0 {
			return r, rowErr(string(f), raw, ErrNegativeValue)
		}
		*targets[f] = v
	}
	return r, nil
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, ErrInvalidNumber
	}
	return int(f), nil
}
