// Package outline renders trees as markdown documents.
package outline

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
)

// Markdown renders nodes as a nested bullet list under a title heading.
// Branches whose children were never fetched are marked as such.
func Markdown(nodes []tree.Node, title string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	total, unfetched := 0, 0
	var count func([]tree.Node)
	count = func(level []tree.Node) {
		for _, n := range level {
			total++
			if n.NeedsFetch() {
				unfetched++
			}
			count(n.Children)
		}
	}
	count(nodes)

	sb.WriteString(fmt.Sprintf("- **Nodes**: %d\n", total))
	sb.WriteString(fmt.Sprintf("- **Unfetched branches**: %d\n\n", unfetched))

	if total == 0 {
		sb.WriteString("_Empty tree._\n")
		return sb.String()
	}

	sb.WriteString("## Outline\n\n")
	var list func([]tree.Node, int)
	list = func(level []tree.Node, depth int) {
		for _, n := range level {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString("- ")
			sb.WriteString(label(n))
			switch {
			case n.NeedsFetch():
				sb.WriteString(" _(not loaded)_")
			case n.Loaded && n.HasChildren && len(n.Children) == 0:
				sb.WriteString(" _(empty)_")
			}
			sb.WriteString("\n")
			list(n.Children, depth+1)
		}
	}
	list(nodes, 0)

	return sb.String()
}

func label(n tree.Node) string {
	if strings.TrimSpace(n.Label) == "" {
		return "`" + n.ID + "`"
	}
	return escaper.Replace(n.Label)
}
