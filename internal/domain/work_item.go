package domain

import "strings"

// WorkItem is one unit of input text to be synthesized. Index is the item's
// stable identity: 1-based, assigned once from the input order, and preserved
// regardless of how the planner later groups or reorders items.
type WorkItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// NewWorkItems converts raw input lines into work items. Lines are trimmed
// and blank lines are skipped; surviving lines receive consecutive 1-based
// indices in input order.
func NewWorkItems(lines []string) []WorkItem {
	items := make([]WorkItem, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		items = append(items, WorkItem{
			Index: len(items) + 1,
			Text:  text,
		})
	}
	return items
}
