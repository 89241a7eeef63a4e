package balance

import (
	"strings"

	"go-leave/internal/shared/config"
)

// Categories is the closed set of leave categories the deployment grants.
// Lookups are case-insensitive.
type Categories struct {
	allotments []config.Allotment
	index      map[string]int
}

func NewCategories(allotments []config.Allotment) Categories {
	c := Categories{
		allotments: make([]config.Allotment, 0, len(allotments)),
		index:      make(map[string]int, len(allotments)),
	}
	for _, a := range allotments {
		name := normalize(a.Category)
		if _, dup := c.index[name]; dup || name == "" {
			continue
		}
		c.index[name] = len(c.allotments)
		c.allotments = append(c.allotments, config.Allotment{Category: name, Days: a.Days})
	}
	return c
}

// Resolve maps a user supplied leave type to its canonical category name.
func (c Categories) Resolve(leaveType string) (string, bool) {
	name := normalize(leaveType)
	_, ok := c.index[name]
	return name, ok
}

func (c Categories) Names() []string {
	names := make([]string, len(c.allotments))
	for i, a := range c.allotments {
		names[i] = a.Category
	}
	return names
}

func (c Categories) Defaults() []config.Allotment {
	out := make([]config.Allotment, len(c.allotments))
	copy(out, c.allotments)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
