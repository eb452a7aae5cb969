package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadInfersKindsAndCounts(t *testing.T) {
	path := writeFile(t, "books.csv", "id,title,average_rating,in_print\n1,Dune,4.2,true\n2,Emma,,false\n3,Solaris,3.9,true\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.RowCount != 3 {
		t.Fatalf("RowCount = %d, want 3", ds.RowCount)
	}
	if len(ds.Columns) != 4 {
		t.Fatalf("columns = %d, want 4", len(ds.Columns))
	}
	wantKinds := map[string]Kind{
		"id":             KindNumeric,
		"title":          KindText,
		"average_rating": KindNumeric,
		"in_print":       KindBoolean,
	}
	for name, want := range wantKinds {
		c := ds.Column(name)
		if c == nil {
			t.Fatalf("column %q not found", name)
		}
		if c.Kind != want {
			t.Errorf("column %q kind = %s, want %s", name, c.Kind, want)
		}
	}
	if got := ds.Column("average_rating").Missing(); got != 1 {
		t.Errorf("average_rating missing = %d, want 1", got)
	}
	nums := ds.Column("average_rating").Nums
	if len(nums) != 3 || !math.IsNaN(nums[1]) {
		t.Errorf("expected NaN at missing position, got %v", nums)
	}
}

func TestLoadNumericRequiresAllCellsParse(t *testing.T) {
	path := writeFile(t, "mixed.csv", "v\n1\ntwo\n3\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ds.Columns[0].Kind; got != KindText {
		t.Fatalf("kind = %s, want text", got)
	}
}

func TestLoadPadsShortRows(t *testing.T) {
	path := writeFile(t, "ragged.csv", "a,b,c\n1,2\n4,5,6\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ds.Column("c").Missing(); got != 1 {
		t.Errorf("padded column missing = %d, want 1", got)
	}
}

func TestLoadTSVDelimiter(t *testing.T) {
	path := writeFile(t, "data.tsv", "x\ty\n1\t2\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(ds.Columns))
	}
}

func TestLoadTolerantOfLatin1Bytes(t *testing.T) {
	// 0xE9 is é in ISO-8859-1 and invalid as standalone UTF-8
	path := writeFile(t, "latin1.csv", "name,score\ncaf\xe9,3\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load should tolerate non-UTF-8 bytes: %v", err)
	}
	if got := ds.Column("name").Cells[0]; got != "café" {
		t.Errorf("decoded cell = %q, want %q", got, "café")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNumericColumnsKeepOrder(t *testing.T) {
	path := writeFile(t, "order.csv", "b,name,a\n2,x,1\n3,y,4\n")
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	num := ds.NumericColumns()
	if len(num) != 2 || num[0].Name != "b" || num[1].Name != "a" {
		t.Fatalf("numeric columns out of order: %v", []string{num[0].Name, num[1].Name})
	}
}
