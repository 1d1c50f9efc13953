package graph

import "container/heap"

// WithinHops returns all territories reachable from origin in at most maxHops
// roads, mapped to their distance. With safeOnly, only blue/yellow territory is entered.
func (m *ZoneMap) WithinHops(origin string, maxHops int, safeOnly bool) map[string]int {
	result := make(map[string]int)
	result[origin] = 0

	queue := []string{origin}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		dist := result[current]
		if dist >= maxHops {
			continue
		}
		for _, neighbor := range m.Adj[current] {
			if safeOnly && !m.Zones[neighbor].Safe() {
				continue
			}
			if _, visited := result[neighbor]; !visited {
				result[neighbor] = dist + 1
				queue = append(queue, neighbor)
			}
		}
	}
	return result
}

// ShortestPath returns the fewest roads between origin and dest, or -1 if unreachable.
func (m *ZoneMap) ShortestPath(origin, dest string) int {
	return m.shortestPath(origin, dest, false)
}

// SafePath is ShortestPath restricted to blue/yellow territory, endpoints included.
// Returns -1 if no such path exists.
func (m *ZoneMap) SafePath(origin, dest string) int {
	return m.shortestPath(origin, dest, true)
}

func (m *ZoneMap) shortestPath(origin, dest string, safeOnly bool) int {
	if safeOnly && (!m.Zones[origin].Safe() || !m.Zones[dest].Safe()) {
		return -1
	}
	if origin == dest {
		return 0
	}

	dist := make(map[string]int)
	dist[origin] = 0

	pq := &priorityQueue{{territory: origin, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if item.territory == dest {
			return item.dist
		}
		if d, ok := dist[item.territory]; ok && item.dist > d {
			continue
		}
		for _, neighbor := range m.Adj[item.territory] {
			if safeOnly && !m.Zones[neighbor].Safe() {
				continue
			}
			nd := item.dist + 1
			if d, ok := dist[neighbor]; !ok || nd < d {
				dist[neighbor] = nd
				heap.Push(pq, pqItem{territory: neighbor, dist: nd})
			}
		}
	}
	return -1
}

// Priority queue for Dijkstra
type pqItem struct {
	territory string
	dist      int
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
