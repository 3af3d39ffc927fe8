package ast

// Walk traverses the tree rooted at n in depth-first order, calling fn for
// each node. If fn returns false the children of that node are skipped.
//
// Bodies are visited as *Fragment nodes, so fn sees every control body
// exactly once: If branches in order followed by the else body, and match
// arms in order.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Fragment:
		for _, c := range n.Nodes {
			Walk(c, fn)
		}
	case *Element:
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *If:
		for _, b := range n.Branches {
			Walk(b.Body, fn)
		}
		if n.Else != nil {
			Walk(n.Else, fn)
		}
	case *For:
		Walk(n.Body, fn)
	case *While:
		Walk(n.Body, fn)
	case *Match:
		for _, a := range n.Arms {
			Walk(a.Body, fn)
		}
	case *Text, *Let:
	}
}

// Count returns the number of nodes in the tree rooted at n, including n.
func Count(n Node) int {
	total := 0
	Walk(n, func(Node) bool {
		total++
		return true
	})
	return total
}
