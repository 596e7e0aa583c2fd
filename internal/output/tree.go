package output

import (
	"github.com/disiqueira/gotree/v3"
)

// ChildrenFunc returns the direct children of a node.
type ChildrenFunc func(node string) ([]string, error)

// Hierarchy renders the tree below root. Depth 0 means unlimited. A node
// already on the current path is printed once more with a cycle marker
// and not expanded.
func Hierarchy(root string, children ChildrenFunc, maxDepth int) (string, error) {
	tree := gotree.New(root)
	onPath := map[string]bool{root: true}
	if err := addChildren(tree, root, children, onPath, 1, maxDepth); err != nil {
		return "", err
	}
	return tree.Print(), nil
}

func addChildren(parent gotree.Tree, node string, children ChildrenFunc, onPath map[string]bool, depth, maxDepth int) error {
	kids, err := children(node)
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if onPath[kid] {
			parent.Add(kid + " (cycle)")
			continue
		}
		if maxDepth > 0 && depth >= maxDepth {
			parent.Add(kid)
			continue
		}
		sub := parent.Add(kid)
		onPath[kid] = true
		err := addChildren(sub, kid, children, onPath, depth+1, maxDepth)
		delete(onPath, kid)
		if err != nil {
			return err
		}
	}
	return nil
}
