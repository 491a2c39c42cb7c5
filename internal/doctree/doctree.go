package doctree

// Node is one entry of a navigation tree, built from a document heading.
type Node struct {
	Text      string  `json:"text" yaml:"text"`                                 // Heading title
	Link      string  `json:"link" yaml:"link"`                                 // documentID#fragment
	Children  []*Node `json:"children,omitempty" yaml:"children,omitempty"`   // Nested headings, nil for a leaf
	Collapsed *bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"` // Set once the node has children
}

// AddChild appends child and marks n as collapsed.
func (n *Node) AddChild(child *Node) {
	collapsed := true
	n.Collapsed = &collapsed
	n.Children = append(n.Children, child)
}

// IsLeaf reports whether n has no nested headings.
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// IsCollapsed reports the collapsed flag, treating absence as false.
func (n *Node) IsCollapsed() bool {
	return n.Collapsed != nil && *n.Collapsed
}

// Walk visits n and its descendants in document order. depth is 0 for n.
// Returning false from fn skips the children of that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Group is a configured sidebar section holding one tree per page.
type Group struct {
	Text      string  `json:"text" yaml:"text"`
	Collapsed *bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Items     []*Node `json:"items" yaml:"items"`
}

// Sidebar is the full navigation of one locale.
type Sidebar struct {
	Locale string  `json:"locale" yaml:"locale"`
	Groups []Group `json:"groups" yaml:"groups"`
}
