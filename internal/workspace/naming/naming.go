// Package naming generates default titles for new pages and folders.
package naming

import (
	"strconv"
	"strings"
)

// UntitledPrefix is the base of every generated title.
const UntitledPrefix = "untitled"

// NextUntitledName returns "untitled" when no existing title starts with
// "untitled" (case-insensitively), otherwise "untitled N" where N is the
// number of titles that do. N is a count, not max suffix + 1, so deleting an
// intermediate "untitled K" can yield a duplicate; existing clients rely on
// this numbering.
//
// Each container is its own namespace: pass only the titles of that
// container's direct children.
func NextUntitledName(existingTitles []string) string {
	n := 0
	for _, title := range existingTitles {
		if strings.HasPrefix(strings.ToLower(title), UntitledPrefix) {
			n++
		}
	}
	if n == 0 {
		return UntitledPrefix
	}
	return UntitledPrefix + " " + strconv.Itoa(n)
}
