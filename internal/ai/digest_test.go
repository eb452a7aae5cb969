package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datascribe-cli/datascribe/internal/analysis"
	"github.com/datascribe-cli/datascribe/internal/dataset"
)

func digestFixture(t *testing.T, content string) (*dataset.Dataset, *analysis.Result) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	ds, err := dataset.Load(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return ds, analysis.Analyze(ds)
}

func TestBuildDigestSections(t *testing.T) {
	ds, res := digestFixture(t, "id,rating,genre\n1,4.5,sf\n2,3.0,sf\n3,,romance\n")
	got := BuildDigest(ds, res)

	for _, want := range []string{
		"Columns and types:",
		"id: numeric",
		"genre: text",
		"Top summary:",
		"Missing values:",
		"rating: 1",
		"Correlation matrix:",
		"narrative-style story",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q\n%s", want, got)
		}
	}
}

func TestBuildDigestOmitsCorrelationWhenEmpty(t *testing.T) {
	ds, res := digestFixture(t, "name\nann\nbob\n")
	got := BuildDigest(ds, res)
	if strings.Contains(got, "Correlation matrix:") {
		t.Error("digest should omit correlation section for non-numeric data")
	}
}

func TestBuildDigestTruncatesTables(t *testing.T) {
	ds, res := digestFixture(t, "a,b,c,d,e,f,g\n1,2,3,4,5,6,7\n2,3,4,5,6,7,8\n")
	got := BuildDigest(ds, res)

	summary := sectionLines(got, "Top summary:")
	if len(summary) != digestHead {
		t.Errorf("summary rows = %d, want %d", len(summary), digestHead)
	}
	missing := sectionLines(got, "Missing values:")
	if len(missing) != digestHead {
		t.Errorf("missing rows = %d, want %d", len(missing), digestHead)
	}
	corr := sectionLines(got, "Correlation matrix:")
	if len(corr) != digestHead {
		t.Errorf("correlation rows = %d, want %d", len(corr), digestHead)
	}
}

// sectionLines returns the non-empty lines between a section header and the
// following blank line.
func sectionLines(digest, header string) []string {
	_, rest, ok := strings.Cut(digest, header+"\n")
	if !ok {
		return nil
	}
	body, _, _ := strings.Cut(rest, "\n\n")
	var lines []string
	for _, l := range strings.Split(body, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
