// Package srt renders and parses SubRip subtitle files. This is the one
// bit-exact external format: parse(render(x)) reproduces timing to the
// millisecond.
package srt

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"autocaption/internal/domain"
)

// Render produces SRT content: sequential 1-based index, timestamp range,
// text, blank line between entries.
func Render(segments []domain.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(seg.Start), formatTimestamp(seg.End))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Parse reads SRT content back into segments. Indices are taken from the
// file; multi-line cue text is joined with newlines.
func Parse(content string) ([]domain.Segment, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	segments := []domain.Segment{}
	for {
		entry, ok, err := scanEntry(scanner)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		segments = append(segments, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return segments, nil
}

// scanEntry consumes one index/timing/text block. ok is false at EOF.
func scanEntry(scanner *bufio.Scanner) (domain.Segment, bool, error) {
	// Skip blank separator lines.
	line := ""
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line != "" {
			break
		}
	}
	if line == "" {
		return domain.Segment{}, false, nil
	}

	index, err := strconv.Atoi(line)
	if err != nil {
		return domain.Segment{}, false, fmt.Errorf("invalid srt index %q: %w", line, err)
	}

	if !scanner.Scan() {
		return domain.Segment{}, false, fmt.Errorf("srt entry %d: missing timing line", index)
	}
	timing := strings.TrimSpace(scanner.Text())
	parts := strings.Split(timing, " --> ")
	if len(parts) != 2 {
		return domain.Segment{}, false, fmt.Errorf("srt entry %d: malformed timing %q", index, timing)
	}
	start, err := parseTimestamp(parts[0])
	if err != nil {
		return domain.Segment{}, false, fmt.Errorf("srt entry %d: %w", index, err)
	}
	end, err := parseTimestamp(parts[1])
	if err != nil {
		return domain.Segment{}, false, fmt.Errorf("srt entry %d: %w", index, err)
	}

	var text []string
	for scanner.Scan() {
		cue := scanner.Text()
		if strings.TrimSpace(cue) == "" {
			break
		}
		text = append(text, cue)
	}

	return domain.Segment{
		ID:    index,
		Start: start,
		End:   end,
		Text:  strings.Join(text, "\n"),
	}, true, nil
}

// formatTimestamp renders seconds as HH:MM:SS,mmm.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	h := millis / 3600000
	m := (millis % 3600000) / 60000
	s := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// parseTimestamp reads HH:MM:SS,mmm into seconds. The hour field is not
// width-limited; very long recordings render with three or more digits.
func parseTimestamp(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	var h, m, s, ms int64
	if _, err := fmt.Sscanf(raw, "%d:%02d:%02d,%03d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", raw, err)
	}
	if h < 0 || m > 59 || s > 59 || ms > 999 {
		return 0, fmt.Errorf("timestamp out of range: %q", raw)
	}
	total := h*3600000 + m*60000 + s*1000 + ms
	return float64(total) / 1000, nil
}
