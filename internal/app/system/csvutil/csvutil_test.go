package csvutil

import (
	"strings"
	"testing"
)

func TestReadHeaderMapped(t *testing.T) {
	in := "GivenName,FamilyName,Email\nMaya,Lin,maya@example.com\nSam,Ortiz,"
	tbl, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tbl.Rows))
	}
	if got := tbl.Get(tbl.Rows[0], "familyname"); got != "Lin" {
		t.Errorf("Get(familyname) = %q, want Lin", got)
	}
	if got := tbl.Get(tbl.Rows[1], "Email"); got != "" {
		t.Errorf("Get(Email) = %q, want empty", got)
	}
}

func TestReadStripsBOM(t *testing.T) {
	in := "\uFEFF" + "Name,Email\nMaya,maya@example.com"
	tbl, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !tbl.Has("name") {
		t.Error("BOM-prefixed header column not found")
	}
}

func TestReadEmptyFile(t *testing.T) {
	if _, err := Read(strings.NewReader("")); err == nil {
		t.Fatal("Read() of empty input succeeded, want error")
	}
}

func TestRequire(t *testing.T) {
	tbl, err := Read(strings.NewReader("A,B\n1,2"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := tbl.Require("a", "b"); err != nil {
		t.Errorf("Require(a, b) = %v, want nil", err)
	}
	err = tbl.Require("a", "c", "d")
	if err == nil || !strings.Contains(err.Error(), "c, d") {
		t.Errorf("Require(a, c, d) = %v, want error naming c and d", err)
	}
}

func TestWriteAllRoundTrip(t *testing.T) {
	var sb strings.Builder
	err := WriteAll(&sb, []string{"X", "Y"}, [][]string{{"1", "2"}, {"3", "4"}})
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	tbl, err := Read(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tbl.Rows) != 2 || tbl.Get(tbl.Rows[1], "y") != "4" {
		t.Errorf("round trip mismatch: %v", tbl.Rows)
	}
}
