package node

// TreeBuilderOption configures a Tree at construction.
type TreeBuilderOption func(*treeImpl)

// WithCapacity preallocates room for n nodes.
//
// Parameters:
//   - n: expected node count
//
// Returns:
//   - TreeBuilderOption: a function that applies the capacity to a treeImpl
func WithCapacity(n int) TreeBuilderOption {
	return func(t *treeImpl) {
		if n > cap(t.nodes) {
			t.nodes = make([]record, 0, n)
		}
	}
}
