package srt

import (
	"math"
	"strings"
	"testing"

	"autocaption/internal/domain"
)

// TestRenderFormat checks the exact SRT block layout.
func TestRenderFormat(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Start: 0, End: 2.5, Text: "hello"},
		{ID: 2, Start: 3661.25, End: 3662, Text: "line one\nline two"},
	}

	got := Render(segments)
	want := "1\n" +
		"00:00:00,000 --> 00:00:02,500\n" +
		"hello\n\n" +
		"2\n" +
		"01:01:01,250 --> 01:01:02,000\n" +
		"line one\nline two\n\n"
	if got != want {
		t.Fatalf("Render() =\n%q\nwant\n%q", got, want)
	}
}

// TestRoundTrip verifies parse(render(x)) reproduces timing within 1ms.
func TestRoundTrip(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Start: 0.001, End: 1.999, Text: "first"},
		{ID: 2, Start: 59.999, End: 60.5, Text: "second entry"},
		{ID: 3, Start: 7199.123, End: 7200.987, Text: "two\nlines"},
	}

	parsed, err := Parse(Render(segments))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != len(segments) {
		t.Fatalf("len = %d, want %d", len(parsed), len(segments))
	}

	for i, seg := range segments {
		if parsed[i].ID != i+1 {
			t.Fatalf("entry %d: index = %d, want %d", i, parsed[i].ID, i+1)
		}
		if math.Abs(parsed[i].Start-seg.Start) > 0.001 {
			t.Fatalf("entry %d: start = %v, want %v", i, parsed[i].Start, seg.Start)
		}
		if math.Abs(parsed[i].End-seg.End) > 0.001 {
			t.Fatalf("entry %d: end = %v, want %v", i, parsed[i].End, seg.End)
		}
		if parsed[i].Text != seg.Text {
			t.Fatalf("entry %d: text = %q, want %q", i, parsed[i].Text, seg.Text)
		}
	}
}

// TestRoundTripBeyond100Hours covers hour fields wider than two digits,
// which the renderer emits for very long recordings.
func TestRoundTripBeyond100Hours(t *testing.T) {
	segments := []domain.Segment{
		{ID: 1, Start: 360000.5, End: 360002.25, Text: "marathon"},
	}

	rendered := Render(segments)
	if !strings.Contains(rendered, "100:00:00,500 --> 100:00:02,250") {
		t.Fatalf("rendered timing missing wide hours:\n%s", rendered)
	}

	parsed, err := Parse(rendered)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("len = %d, want 1", len(parsed))
	}
	if math.Abs(parsed[0].Start-360000.5) > 0.001 || math.Abs(parsed[0].End-360002.25) > 0.001 {
		t.Fatalf("round trip = [%v, %v], want [360000.5, 360002.25]", parsed[0].Start, parsed[0].End)
	}
}

// TestParseTolerantOfLeadingBlankLines checks real-world file slack.
func TestParseTolerantOfLeadingBlankLines(t *testing.T) {
	content := "\n\n1\n00:00:00,000 --> 00:00:01,000\nhi\n\n"
	parsed, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Text != "hi" {
		t.Fatalf("parsed = %+v", parsed)
	}
}

// TestParseEmpty returns an empty list for empty input.
func TestParseEmpty(t *testing.T) {
	parsed, err := Parse("")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("len = %d, want 0", len(parsed))
	}
}

// TestParseMalformedTiming rejects broken timing lines.
func TestParseMalformedTiming(t *testing.T) {
	_, err := Parse("1\n00:00:00,000 -> 00:00:01,000\nhi\n")
	if err == nil {
		t.Fatal("expected timing parse error")
	}
	if !strings.Contains(err.Error(), "timing") {
		t.Fatalf("error = %v, want timing mention", err)
	}
}
