package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Open selects a worksheet by name, else by 1-based index (default 1), and
// streams its rows.
func (xlsxReader) Open(p string, opt LoadOptions) (RowIterator, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	var wb workbook
	if err := unmarshalZipXML(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	var rels relationships
	_ = unmarshalZipXML(zr, "xl/_rels/workbook.xml.rels", &rels)
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	sheetPath := ""
	if opt.SheetName != "" {
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, opt.SheetName) && targets[s.RID] != "" {
				sheetPath = sheetZipPath(targets[s.RID])
			}
		}
		if sheetPath == "" {
			return nil, fmt.Errorf("sheet %q not found in %s (available: %s)", opt.SheetName, filepath.Base(p), strings.Join(names, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range wb.Sheets {
			if s.SheetID == idx && targets[s.RID] != "" {
				sheetPath = sheetZipPath(targets[s.RID])
				break
			}
		}
		if sheetPath == "" {
			sheetPath = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}

	sheet := zipEntry(zr, sheetPath)
	if sheet == nil {
		return nil, fmt.Errorf("open xlsx: worksheet %s not found", sheetPath)
	}
	// Workbooks without text cells have no shared string table.
	var sst sharedStrings
	if b := zipEntry(zr, "xl/sharedStrings.xml"); b != nil {
		if err := xml.Unmarshal(b, &sst); err != nil {
			return nil, fmt.Errorf("read shared strings: %w", err)
		}
	}
	shared := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		shared[i] = si.text()
	}
	return &sheetRows{dec: xml.NewDecoder(bytes.NewReader(sheet)), shared: shared}, nil
}

type workbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedStrings struct {
	Items []sharedItem `xml:"si"`
}

type sharedItem struct {
	T    string `xml:"t"`
	Runs []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (s sharedItem) text() string {
	if len(s.Runs) == 0 {
		return s.T
	}
	var b strings.Builder
	b.WriteString(s.T)
	for _, r := range s.Runs {
		b.WriteString(r.T)
	}
	return b.String()
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

func unmarshalZipXML(zr *zip.Reader, name string, v any) error {
	b := zipEntry(zr, name)
	if b == nil {
		return fmt.Errorf("%s: not found", name)
	}
	return xml.Unmarshal(b, v)
}

// sheetZipPath turns a relationship target ("/xl/worksheets/sheet1.xml" or
// "worksheets/sheet1.xml") into a zip entry name.
func sheetZipPath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

// sheetRows streams <row> elements of a worksheet as string slices.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
	line   int      // rows started so far; the header is line 1
	header []string // first row, used to name columns in errors
}

func (s *sheetRows) Close() error { return nil }

func (s *sheetRows) Next() ([]string, error) {
	var row []string
	inRow := false
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) && inRow {
				s.keepHeader(row)
				return row, nil
			}
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				inRow = true
				row = row[:0]
				s.line++
			case "c":
				if !inRow {
					continue
				}
				var ref, typ string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					col = len(row)
				}
				val, err := s.cellValue(typ)
				if errors.Is(err, ErrCorruptCell) {
					return nil, &RowError{Line: s.line, Column: s.columnName(col, ref), Value: val, Err: ErrCorruptCell}
				}
				if err != nil {
					return nil, err
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = val
			}
		case xml.EndElement:
			if el.Name.Local == "row" && inRow {
				s.keepHeader(row)
				return row, nil
			}
		}
	}
}

func (s *sheetRows) keepHeader(row []string) {
	if s.header == nil {
		s.header = append([]string{}, row...)
	}
}

// columnName names column col by its header cell, else by the cell reference.
func (s *sheetRows) columnName(col int, ref string) string {
	if col >= 0 && col < len(s.header) {
		if h := strings.ToLower(strings.TrimSpace(s.header[col])); h != "" {
			return h
		}
	}
	return ref
}

// cellValue consumes a <c> element and returns its text. Shared strings are
// resolved; inline strings are read from <is><t>. A shared-string reference
// that does not resolve returns the raw value with ErrCorruptCell.
func (s *sheetRows) cellValue(typ string) (string, error) {
	var raw strings.Builder
	depth := 0
	capture := false
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if el.Name.Local == "v" || el.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				raw.Write(el)
			}
		case xml.EndElement:
			if depth == 0 {
				v := raw.String()
				if typ == "s" {
					i, err := strconv.Atoi(strings.TrimSpace(v))
					if err != nil || i < 0 || i >= len(s.shared) {
						return v, ErrCorruptCell
					}
					return s.shared[i], nil
				}
				return v, nil
			}
			depth--
			capture = false
		}
	}
}

// columnIndex maps a cell reference such as "C12" to a 0-based column.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}
