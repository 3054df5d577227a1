package ir

// PostOrder returns every node reachable from roots through operand edges,
// each exactly once, operands before their consumers. This is the order in
// which lowering visits a graph.
func PostOrder(roots ...*Node) []*Node {
	type frame struct {
		node *Node
		next int
	}
	visited := make(map[*Node]bool)
	var order []*Node
	var stack []frame
	for _, root := range roots {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack = append(stack, frame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(top.node.operands) {
				operand := top.node.operands[top.next]
				top.next++
				if !visited[operand] {
					visited[operand] = true
					stack = append(stack, frame{node: operand})
				}
				continue
			}
			order = append(order, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	return order
}
