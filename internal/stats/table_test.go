package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"#", "X", "Y", "Interval"}
	rows := [][]string{
		{"1", "540", "1440", "5.5ms"},
		{"12", "732", "1440", "8ms"},
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true}

	lines := FormatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != " #   X    Y Interval" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != " 1 540 1440 5.5ms   " {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "12 732 1440 8ms     " {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := FormatTable([]string{"Ring", "N"}, [][]string{{"中心", "1"}}, nil)
	if lines[0] != "Ring N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "中心 1" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
