package dataset

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const header = "#,claim_status,video_id,video_duration_sec,video_transcription_text,verified_status,author_ban_status,video_view_count,video_like_count,video_share_count,video_download_count,video_comment_count"

var sampleRows = []string{
	header,
	`1,claim,7017666017,59,someone shared with me that drone deliveries are already happening,not verified,under review,343296.0,19425.0,241.0,1.0,0.0`,
	`2,claim,4014381136,32,someone shared with me that there are more microorganisms,not verified,active,140877.0,77355.0,19034.0,1161.0,684.0`,
	`3,opinion,9859838091,31,"i think that the moon is, in fact, far",not verified,active,0,0,0,0,0`,
	`4,opinion,1866847991,25,i believe that leeches are used,verified,banned,437.0,47.0,3.0,0.0,1.0`,
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestOpenCSV(t *testing.T) {
	p := writeFile(t, "tiktok_dataset.csv", strings.Join(sampleRows, "\n"))
	tbl, err := Open(p, LoadOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tbl.Name != "tiktok_dataset.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
	if tbl.Len() != 4 || tbl.Read != 4 || tbl.Dropped != 0 {
		t.Fatalf("len=%d read=%d dropped=%d", tbl.Len(), tbl.Read, tbl.Dropped)
	}
	r := tbl.Records[0]
	if r.ID != 1 || r.ClaimStatus != Claim || r.AuthorBanStatus != UnderReview || r.VerifiedStatus != NotVerified {
		t.Fatalf("first record = %+v", r)
	}
	if r.Views != 343296 || r.Likes != 19425 || r.Shares != 241 || r.Downloads != 1 || r.Comments != 0 || r.Duration != 59 {
		t.Fatalf("first record counts = %+v", r)
	}
	if got := tbl.Records[3].AuthorBanStatus; got != Banned {
		t.Fatalf("ban status = %q, want banned", got)
	}
}

func TestEngagementRates(t *testing.T) {
	tbl, err := LoadCSV(strings.NewReader(strings.Join(sampleRows, "\n")), "rows.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	r := tbl.Records[1]
	if want := 77355.0 / 140877.0; !r.LikesPerView.Valid || r.LikesPerView.Float64 != want {
		t.Fatalf("likes_per_view = %v, want %v", r.LikesPerView, want)
	}
	if want := 684.0 / 140877.0; r.Value(CommentsPerView).Float64 != want {
		t.Fatalf("comments_per_view = %v, want %v", r.Value(CommentsPerView), want)
	}
	zero := tbl.Records[2]
	for _, f := range RateFields {
		if v := zero.Value(f); v.Valid {
			t.Fatalf("%s on zero views = %v, want missing", f, v)
		}
	}
	if got := len(tbl.Values(LikesPerView)); got != 3 {
		t.Fatalf("valid likes_per_view = %d, want 3", got)
	}
	// idempotent
	tbl.DeriveRates()
	if tbl.Records[2].SharesPerView.Valid {
		t.Fatalf("rates re-derived as valid")
	}
}

func TestMissingColumn(t *testing.T) {
	body := "#,claim_status,video_view_count\n1,claim,10\n"
	_, err := LoadCSV(strings.NewReader(body), "short.csv", LoadOptions{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	var mc *MissingColumnError
	if !errors.As(err, &mc) {
		t.Fatalf("err type = %T", err)
	}
	if len(mc.Columns) != 7 || mc.Columns[0] != "video_duration_sec" {
		t.Fatalf("missing columns = %v", mc.Columns)
	}

	_, err = LoadCSV(strings.NewReader(""), "empty.csv", LoadOptions{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("empty input err = %v, want ErrMissingColumn", err)
	}
}

func TestMalformedRows(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		want   error
		column string
	}{
		{"unknown claim", `9,rumor,1,10,x,verified,active,1,1,1,1,1`, ErrUnknownEnum, ColClaim},
		{"unknown ban", `9,claim,1,10,x,verified,suspended,1,1,1,1,1`, ErrUnknownEnum, ColBan},
		{"non numeric", `9,claim,1,10,x,verified,active,lots,1,1,1,1`, ErrInvalidNumber, string(Views)},
		{"negative", `9,claim,1,10,x,verified,active,1,-3,1,1,1`, ErrNegativeValue, string(Likes)},
		{"blank", `9,claim,1,10,x,verified,active,1,1,,1,1`, ErrEmptyValue, string(Shares)},
		{"bad id", `x9,claim,1,10,x,verified,active,1,1,1,1,1`, ErrInvalidNumber, ColID},
		{"fractional id", `9.5,claim,1,10,x,verified,active,1,1,1,1,1`, ErrInvalidNumber, ColID},
		{"id out of range", `1e300,claim,1,10,x,verified,active,1,1,1,1,1`, ErrInvalidNumber, ColID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := header + "\n" + tt.row + "\n"
			_, err := LoadCSV(strings.NewReader(body), "bad.csv", LoadOptions{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var re *RowError
			if !errors.As(err, &re) {
				t.Fatalf("err type = %T, want *RowError", err)
			}
			if re.Line != 2 || re.Column != tt.column {
				t.Fatalf("row error at line %d column %s, want line 2 column %s", re.Line, re.Column, tt.column)
			}
		})
	}
}

func TestDropIncomplete(t *testing.T) {
	rows := append([]string{}, sampleRows...)
	rows = append(rows, `5,,1,10,,,,,,,,`, `6,opinion,1,10,x,verified,active,100,,1,1,1`)
	body := strings.Join(rows, "\n")

	if _, err := LoadCSV(strings.NewReader(body), "rows.csv", LoadOptions{}); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("strict load err = %v, want ErrEmptyValue", err)
	}
	tbl, err := LoadCSV(strings.NewReader(body), "rows.csv", LoadOptions{DropIncomplete: true})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if tbl.Len() != 4 || tbl.Dropped != 2 || tbl.Read != 6 {
		t.Fatalf("len=%d dropped=%d read=%d", tbl.Len(), tbl.Dropped, tbl.Read)
	}
}

func TestTSVAndHeaderCase(t *testing.T) {
	body := strings.Join([]string{
		"\ufeff#\tClaim_Status\tvideo_duration_sec\tverified_status\tauthor_ban_status\tvideo_view_count\tvideo_like_count\tvideo_share_count\tvideo_download_count\tvideo_comment_count",
		"1\tClaim\t10\tverified\tActive\t100\t10\t1\t0\t2",
	}, "\n")
	p := writeFile(t, "rows.tsv", body)
	tbl, err := Open(p, LoadOptions{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tbl.Len() != 1 || tbl.Records[0].ClaimStatus != Claim || tbl.Records[0].AuthorBanStatus != Active {
		t.Fatalf("records = %+v", tbl.Records)
	}
}

func TestOpenUnsupported(t *testing.T) {
	p := writeFile(t, "rows.parquet", "x")
	if _, err := Open(p, LoadOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestFilter(t *testing.T) {
	tbl, err := LoadCSV(strings.NewReader(strings.Join(sampleRows, "\n")), "rows.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	claims := tbl.WhereClaim(Claim)
	opinions := tbl.WhereClaim(Opinion)
	if claims.Len()+opinions.Len() != tbl.Len() {
		t.Fatalf("partition sizes %d+%d != %d", claims.Len(), opinions.Len(), tbl.Len())
	}
	if got := tbl.WhereBan(Active).Len(); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
	if !claims.Records[0].LikesPerView.Valid {
		t.Fatalf("sub-table lost derived rates")
	}
}

func TestParseFieldAndDimension(t *testing.T) {
	if f, err := ParseField("view_count"); err != nil || f != Views {
		t.Fatalf("ParseField(view_count) = %v, %v", f, err)
	}
	if f, err := ParseField("likes_per_view"); err != nil || f != LikesPerView {
		t.Fatalf("ParseField(likes_per_view) = %v, %v", f, err)
	}
	if _, err := ParseField("followers"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	if d, err := ParseDimension("ban"); err != nil || d != BanDim {
		t.Fatalf("ParseDimension(ban) = %v, %v", d, err)
	}
	got := BanDim.Canonical(nil)
	if strings.Join(got, ",") != "active,under review,banned" {
		t.Fatalf("canonical ban order = %v", got)
	}
	tbl := NewTable("x", []Record{{VerifiedStatus: "pending"}, {VerifiedStatus: Verified}})
	if got := VerifiedDim.Canonical(tbl); strings.Join(got, ",") != "verified,not verified,pending" {
		t.Fatalf("canonical verified order = %v", got)
	}
}

func TestNullFloatJSON(t *testing.T) {
	b, err := Missing.MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Fatalf("missing json = %s, %v", b, err)
	}
	var n NullFloat
	if err := n.UnmarshalJSON([]byte("2.5")); err != nil || n != Some(2.5) {
		t.Fatalf("unmarshal = %v, %v", n, err)
	}
	if Missing.Text("%.2f") != "NaN" || Some(1).Text("%.2f") != "1.00" {
		t.Fatalf("text rendering mismatch")
	}
}

const defaultSST = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>claim</t></si><si><r><t>under </t></r><r><t>review</t></r></si></sst>`

// writeXLSX builds a minimal workbook whose second sheet, "Data", holds rows.
// "claim" and "under review" are stored as shared strings; a value "s:N"
// writes a raw shared-string reference N.
func writeXLSX(t *testing.T, rows [][]string) string {
	t.Helper()
	return writeXLSXWith(t, defaultSST, rows)
}

func writeXLSXWith(t *testing.T, sst string, rows [][]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dataset.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create xlsx: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	add := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	add("xl/workbook.xml", `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`)
	add("xl/_rels/workbook.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`)
	add("xl/sharedStrings.xml", sst)
	add("xl/worksheets/sheet1.xml", `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>notes</t></is></c></row></sheetData></worksheet>`)

	var b strings.Builder
	b.WriteString(`<worksheet><sheetData>`)
	for i, row := range rows {
		fmt.Fprintf(&b, `<row r="%d">`, i+1)
		for j, v := range row {
			ref := fmt.Sprintf("%c%d", 'A'+j, i+1)
			switch {
			case strings.HasPrefix(v, "s:"):
				fmt.Fprintf(&b, `<c r="%s" t="s"><v>%s</v></c>`, ref, strings.TrimPrefix(v, "s:"))
			case v == "claim":
				fmt.Fprintf(&b, `<c r="%s" t="s"><v>0</v></c>`, ref)
			case v == "under review":
				fmt.Fprintf(&b, `<c r="%s" t="s"><v>1</v></c>`, ref)
			case v == "":
			default:
				fmt.Fprintf(&b, `<c r="%s" t="inlineStr"><is><t>%s</t></is></c>`, ref, v)
			}
		}
		b.WriteString(`</row>`)
	}
	b.WriteString(`</sheetData></worksheet>`)
	add("xl/worksheets/sheet2.xml", b.String())
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return p
}

func TestOpenXLSX(t *testing.T) {
	rows := [][]string{
		{"#", "claim_status", "video_duration_sec", "verified_status", "author_ban_status", "video_view_count", "video_like_count", "video_share_count", "video_download_count", "video_comment_count"},
		{"1", "claim", "30", "verified", "under review", "1000", "100", "10", "1", "5"},
		{"2", "opinion", "12", "not verified", "active", "500", "10", "2", "0", "1"},
	}
	p := writeXLSX(t, rows)

	for _, opt := range []LoadOptions{{SheetName: "data"}, {SheetIndex: 2}} {
		tbl, err := Open(p, opt)
		if err != nil {
			t.Fatalf("Open(%+v): %v", opt, err)
		}
		if tbl.Len() != 2 {
			t.Fatalf("len = %d, want 2", tbl.Len())
		}
		r := tbl.Records[0]
		if r.ClaimStatus != Claim || r.AuthorBanStatus != UnderReview || r.Views != 1000 {
			t.Fatalf("first record = %+v", r)
		}
	}

	if _, err := Open(p, LoadOptions{SheetName: "Missing"}); err == nil || !strings.Contains(err.Error(), "Notes, Data") {
		t.Fatalf("missing sheet err = %v", err)
	}
	if _, err := Open(p, LoadOptions{SheetIndex: 1}); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("notes sheet err = %v, want ErrMissingColumn", err)
	}
}

var xlsxHeader = []string{"#", "claim_status", "video_duration_sec", "verified_status", "author_ban_status", "video_view_count", "video_like_count", "video_share_count", "video_download_count", "video_comment_count"}

func TestOpenXLSXDanglingSharedString(t *testing.T) {
	p := writeXLSX(t, [][]string{
		xlsxHeader,
		{"1", "s:7", "30", "verified", "active", "1000", "100", "10", "1", "5"},
	})
	for _, drop := range []bool{false, true} {
		tbl, err := Open(p, LoadOptions{DropIncomplete: drop})
		if !errors.Is(err, ErrCorruptCell) {
			t.Fatalf("drop=%v: err = %v (table %+v), want ErrCorruptCell", drop, err, tbl)
		}
		var re *RowError
		if !errors.As(err, &re) {
			t.Fatalf("drop=%v: err type = %T, want *RowError", drop, err)
		}
		if re.Line != 2 || re.Column != ColClaim || re.Value != "7" {
			t.Fatalf("drop=%v: row error = %+v", drop, re)
		}
	}
}

func TestOpenXLSXMalformedSharedStrings(t *testing.T) {
	p := writeXLSXWith(t, `<sst><si><t>claim</t></si`, [][]string{
		xlsxHeader,
		{"1", "claim", "30", "verified", "active", "1000", "100", "10", "1", "5"},
	})
	_, err := Open(p, LoadOptions{DropIncomplete: true})
	if err == nil || !strings.Contains(err.Error(), "shared strings") {
		t.Fatalf("err = %v, want shared strings error", err)
	}
}

func TestSheetZipPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := sheetZipPath(tt.in); got != tt.want {
			t.Errorf("sheetZipPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if columnIndex("AB7") != 27 || columnIndex("C12") != 2 || columnIndex("") != -1 {
		t.Errorf("columnIndex mismatch")
	}
}
