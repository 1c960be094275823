package rag

import (
	"fmt"
	"strconv"
	"strings"
)

// maxPageSpan caps a single range so a typo cannot allocate millions of
// positions.
const maxPageSpan = 1000

// ParsePageList parses display page numbers such as "12,47-49" into
// zero-based positions.
func ParsePageList(spec string) (PageSet, error) {
	set := NewPageSet()
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		if from < 1 || to < from || to-from >= maxPageSpan {
			return nil, fmt.Errorf("invalid page range %q", part)
		}
		for p := from; p <= to; p++ {
			set.Add(p - 1)
		}
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("no pages given")
	}
	return set, nil
}
