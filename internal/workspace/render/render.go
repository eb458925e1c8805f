// Package render draws the active workspace tree as box-drawing text.
package render

import (
	"strings"

	models "idealite/internal/domain/models/workspace"
)

// Line is one row of the rendered tree.
type Line struct {
	Label  string
	Depth  int
	IsLast bool // last child of its parent
	Suffix string
}

// Tree renders roots under a single "workspace" line:
//
//	workspace
//	├── #science
//	│   ├── lab/
//	│   │   └── untitled
//	│   └── #physics [collapsed]
//	└── #art
//	    └── sketch (canvas)
//
// Collapsed tags and folders are marked but still expanded.
func Tree(roots []*models.TreeTag, opts ...Option) string {
	var tr treeRenderer
	for _, opt := range opts {
		opt(&tr)
	}

	lines := []Line{{Label: "workspace"}}
	for i, t := range roots {
		lines = tr.appendTag(lines, t, 1, i == len(roots)-1)
	}
	return Render(lines)
}

type Option func(*treeRenderer)

// WithIDs appends each node's identifier, for callers that act on nodes.
func WithIDs() Option {
	return func(tr *treeRenderer) { tr.ids = true }
}

type treeRenderer struct {
	ids bool
}

func (tr treeRenderer) suffix(id string, parts ...string) string {
	if tr.ids {
		parts = append(parts, "<"+id+">")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Render joins lines, drawing a branch for each and a vertical rule for
// every ancestor that still has siblings below.
func Render(lines []Line) string {
	var b strings.Builder
	open := make(map[int]bool)

	for i, l := range lines {
		for d := 1; d < l.Depth; d++ {
			if open[d] {
				b.WriteString("│   ")
			} else {
				b.WriteString("    ")
			}
		}
		if l.Depth > 0 {
			if l.IsLast {
				b.WriteString("└── ")
			} else {
				b.WriteString("├── ")
			}
		}
		b.WriteString(l.Label)
		if l.Suffix != "" {
			b.WriteString(" ")
			b.WriteString(l.Suffix)
		}
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
		open[l.Depth] = !l.IsLast
	}
	return b.String()
}

func collapsedSuffix(collapsed bool) string {
	if collapsed {
		return "[collapsed]"
	}
	return ""
}

func (tr treeRenderer) pageLine(p models.TreePage, depth int, last bool) Line {
	kind := ""
	if p.Kind == models.PageKindCanvas {
		kind = "(canvas)"
	}
	return Line{Label: p.Title, Depth: depth, IsLast: last, Suffix: tr.suffix(p.ID, kind)}
}

// appendTag emits folders, then pages, then child tags.
func (tr treeRenderer) appendTag(lines []Line, t *models.TreeTag, depth int, last bool) []Line {
	lines = append(lines, Line{Label: "#" + t.Name, Depth: depth, IsLast: last, Suffix: tr.suffix(t.ID, collapsedSuffix(t.IsCollapsed))})

	n := len(t.Folders) + len(t.Pages) + len(t.Children)
	i := 0
	for _, f := range t.Folders {
		i++
		lines = tr.appendFolder(lines, f, depth+1, i == n)
	}
	for _, p := range t.Pages {
		i++
		lines = append(lines, tr.pageLine(p, depth+1, i == n))
	}
	for _, c := range t.Children {
		i++
		lines = tr.appendTag(lines, c, depth+1, i == n)
	}
	return lines
}

func (tr treeRenderer) appendFolder(lines []Line, f *models.TreeFolder, depth int, last bool) []Line {
	lines = append(lines, Line{Label: f.Name + "/", Depth: depth, IsLast: last, Suffix: tr.suffix(f.ID, collapsedSuffix(f.IsCollapsed))})

	n := len(f.Folders) + len(f.Pages)
	i := 0
	for _, child := range f.Folders {
		i++
		lines = tr.appendFolder(lines, child, depth+1, i == n)
	}
	for _, p := range f.Pages {
		i++
		lines = append(lines, tr.pageLine(p, depth+1, i == n))
	}
	return lines
}
