package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// parseListing decodes a raw listing body. Two formats are accepted:
//
//   - JSON: an array of objects ({"id","url","title"}) or an array of
//     plain URL strings
//   - text: one URL per line, blank lines and #-comments ignored
//
// The format is sniffed from the body, not from the content type, because
// plain file servers rarely set one worth trusting.
func parseListing(data []byte) ([]Item, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Item{}, nil
	}

	if trimmed[0] == '[' {
		items, err := parseJSONListing(trimmed)
		if err != nil {
			return nil, err
		}
		return normalize(items), nil
	}

	items, err := parseLineListing(trimmed)
	if err != nil {
		return nil, err
	}
	return normalize(items), nil
}

func parseJSONListing(data []byte) ([]Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("listing json: %w", err)
	}
	items := make([]Item, 0, len(raw))
	for i, m := range raw {
		m = bytes.TrimSpace(m)
		if len(m) == 0 {
			continue
		}
		if m[0] == '"' {
			var u string
			if err := json.Unmarshal(m, &u); err != nil {
				return nil, fmt.Errorf("listing json entry %d: %w", i, err)
			}
			items = append(items, Item{URL: u})
			continue
		}
		var it Item
		if err := json.Unmarshal(m, &it); err != nil {
			return nil, fmt.Errorf("listing json entry %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

func parseLineListing(data []byte) ([]Item, error) {
	var items []Item
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, Item{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("listing lines: %w", err)
	}
	return items, nil
}
