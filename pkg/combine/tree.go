package combine

import (
	"path/filepath"
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	isDir    bool
	children map[string]*treeNode
}

func newTreeNode(name string, isDir bool) *treeNode {
	return &treeNode{name: name, isDir: isDir, children: map[string]*treeNode{}}
}

func (n *treeNode) insert(parts []string) {
	if len(parts) == 0 {
		return
	}
	isDir := len(parts) > 1
	child, ok := n.children[parts[0]]
	if !ok {
		child = newTreeNode(parts[0], isDir)
		n.children[parts[0]] = child
	}
	child.insert(parts[1:])
}

// GenerateTree renders the discovered files as a tree, one block per input
// path. Only files that were collected appear.
func GenerateTree(collected CollectedFiles) string {
	var treeBuilder strings.Builder

	for _, p := range collected {
		if !p.IsDir {
			treeBuilder.WriteString(filepath.ToSlash(p.Root) + "\n")
			continue
		}

		treeBuilder.WriteString(strings.TrimSuffix(filepath.ToSlash(p.Root), "/") + "/\n")
		root := newTreeNode(p.Root, true)
		for _, file := range p.Files {
			rel, err := filepath.Rel(p.Root, file)
			if err != nil {
				rel = file
			}
			root.insert(strings.Split(filepath.ToSlash(rel), "/"))
		}
		writeTree(&treeBuilder, root, "")
	}

	return treeBuilder.String()
}

// writeTree renders children of n, directories first, then files, alphabetically.
func writeTree(b *strings.Builder, n *treeNode, prefix string) {
	children := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].isDir != children[j].isDir {
			return children[i].isDir
		}
		li, lj := strings.ToLower(children[i].name), strings.ToLower(children[j].name)
		if li != lj {
			return li < lj
		}
		return children[i].name < children[j].name
	})

	for i, c := range children {
		connector := "├── "
		extension := "│   "
		if i == len(children)-1 {
			connector = "└── "
			extension = "    "
		}

		if c.isDir {
			b.WriteString(prefix + connector + c.name + "/\n")
			writeTree(b, c, prefix+extension)
			continue
		}
		b.WriteString(prefix + connector + c.name + "\n")
	}
}
