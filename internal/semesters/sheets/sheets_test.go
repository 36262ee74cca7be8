package sheets

import (
	"context"
	"strings"
	"testing"

	"gradecalc/internal/core"
)

func TestNewMissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewMissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewUnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", ServiceAccountFile: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	ctx := context.Background()
	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get should fail without a service")
	}
	if err := c.Put(ctx, "k", "v"); err == nil {
		t.Error("Put should fail without a service")
	}
	if err := c.Delete(ctx, "k"); err == nil {
		t.Error("Delete should fail without a service")
	}
	if err := c.WriteSemesters(ctx, nil); err == nil {
		t.Error("WriteSemesters should fail without a service")
	}
}

func TestFindKey(t *testing.T) {
	values := [][]any{
		{"other", "x"},
		{},
		{" cgpaSemesters ", `[{"gpa":"3.50","credit":15}]`},
		{"lonely"},
	}

	tests := []struct {
		key     string
		wantRow int
		wantVal string
		wantOK  bool
	}{
		{"other", 1, "x", true},
		{"cgpaSemesters", 3, `[{"gpa":"3.50","credit":15}]`, true},
		{"lonely", 4, "", true},
		{"missing", 0, "", false},
	}
	for _, tt := range tests {
		row, val, ok := findKey(values, tt.key)
		if row != tt.wantRow || val != tt.wantVal || ok != tt.wantOK {
			t.Errorf("findKey(%q) = %d, %q, %v", tt.key, row, val, ok)
		}
	}
}

func TestMirrorValues(t *testing.T) {
	got := mirrorValues([]core.SemesterRow{{GPA: "3.50", Credit: "15"}, {GPA: "", Credit: "3"}})
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	want := [][]string{{"Sem", "GPA", "Credit"}, {"Sem 1", "3.50", "15"}, {"Sem 2", "", "3"}}
	for i := range want {
		cells := toStrings(got[i])
		for j := range want[i] {
			if cells[j] != want[i][j] {
				t.Errorf("cell [%d][%d] = %q, want %q", i, j, cells[j], want[i][j])
			}
		}
	}

	if empty := mirrorValues(nil); len(empty) != 1 {
		t.Errorf("empty list should render the header only, got %d rows", len(empty))
	}
}
