package codeindex

// EstimateTokens estimates the token count for content using chars/4.
// Code tends to be denser than prose, so this errs on the low side.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}
	return (len(content) + 3) / 4
}

// SubtreeTokens sums the token estimate of a node's text and all descendants.
func SubtreeTokens(n *Node) int {
	total := EstimateTokens(n.Text)
	for _, child := range n.Nodes {
		total += SubtreeTokens(child)
	}
	return total
}
