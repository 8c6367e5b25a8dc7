package gitgraph

import "container/heap"

// worklistItem is one pending commit in the topological traversal,
// carrying a snapshot of its out-degree at push time (out-degree never
// changes once the graph is built, so this is just the priority key).
type worklistItem struct {
	commitIdx uint32
	outDegree int
}

// worklistImp is the container/heap.Interface implementation; worklist
// wraps it the same way the teacher's blame.go wraps its queueItem heap,
// giving callers a Push/Pop pair that doesn't leak the heap package.
type worklistImp []worklistItem

func (w worklistImp) Len() int { return len(w) }

// Less orders by ascending out-degree (spec §4.5.3); ties broken by
// insertion order is not guaranteed by container/heap, which matches the
// spec's "ties broken arbitrarily".
func (w worklistImp) Less(i, j int) bool { return w[i].outDegree < w[j].outDegree }
func (w worklistImp) Swap(i, j int)      { w[i], w[j] = w[j], w[i] }

func (w *worklistImp) Push(x any) { *w = append(*w, x.(worklistItem)) }

func (w *worklistImp) Pop() any {
	old := *w
	n := len(old)
	item := old[n-1]
	*w = old[:n-1]
	return item
}

type worklist worklistImp

func (wl *worklist) Push(item worklistItem) { heap.Push((*worklistImp)(wl), item) }
func (wl *worklist) Pop() worklistItem       { return heap.Pop((*worklistImp)(wl)).(worklistItem) }
func (wl *worklist) Len() int                { return len(*wl) }
