package route

import (
	"fmt"
	"strings"
	"sync"
)

// Topology 静态拓扑描述
// 边按有向存储 from -> to -> cost，UpdateLink 写入双向
type Topology struct {
	mtx   sync.RWMutex
	order []string
	nodes map[string]struct{}
	edges map[string]map[string]float64
}

func NewTopology() *Topology {
	return &Topology{
		nodes: make(map[string]struct{}),
		edges: make(map[string]map[string]float64),
	}
}

// AddNode 添加节点，已存在时忽略，保持首次出现的顺序
func (t *Topology) AddNode(nodeID string) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.addNodeLocked(nodeID)
}

func (t *Topology) addNodeLocked(nodeID string) {
	if _, ok := t.nodes[nodeID]; ok {
		return
	}
	t.nodes[nodeID] = struct{}{}
	t.order = append(t.order, nodeID)
	if t.edges[nodeID] == nil {
		t.edges[nodeID] = make(map[string]float64)
	}
}

// HasNode 判断节点是否存在
func (t *Topology) HasNode(nodeID string) bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	_, ok := t.nodes[nodeID]
	return ok
}

// SetCost 设置单向链路代价
func (t *Topology) SetCost(from, to string, cost float64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.addNodeLocked(from)
	t.edges[from][to] = cost
}

// UpdateLink 无向图，更新两条边
func (t *Topology) UpdateLink(from, to string, cost float64) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	t.addNodeLocked(from)
	t.addNodeLocked(to)
	t.edges[from][to] = cost
	t.edges[to][from] = cost
}

func (t *Topology) GetCost(from, to string) (float64, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	cost, exists := t.edges[from][to]
	return cost, exists
}

// GetNeighbors 获取一个节点的出边
func (t *Topology) GetNeighbors(nodeName string) map[string]float64 {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	neighbors := make(map[string]float64, len(t.edges[nodeName]))
	for neighbor, cost := range t.edges[nodeName] {
		neighbors[neighbor] = cost
	}
	return neighbors
}

// GetAllNodes 按加入顺序返回所有节点 ID
func (t *Topology) GetAllNodes() []string {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	nodes := make([]string, len(t.order))
	copy(nodes, t.order)
	return nodes
}

// Specs 按节点顺序导出节点描述
func (t *Topology) Specs() []NodeSpec {
	nodes := t.GetAllNodes()
	specs := make([]NodeSpec, 0, len(nodes))
	for _, id := range nodes {
		specs = append(specs, NodeSpec{ID: id, Neighbors: t.GetNeighbors(id)})
	}
	return specs
}

func (t *Topology) String() string {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	var sb strings.Builder
	sb.WriteString("Topology:\n")
	fmt.Fprintf(&sb, "Nodes: %s\n", strings.Join(t.order, ", "))
	sb.WriteString("Links:\n")
	visited := make(map[string]bool)
	for _, from := range t.order {
		neighbors := t.edges[from]
		for _, to := range sortedKeys(neighbors) {
			cost := neighbors[to]
			edgeID := makeEdgeID(from, to)
			if visited[edgeID] {
				continue
			}
			// 对称链路只打印一次
			if back, ok := t.edges[to][from]; ok && back == cost {
				visited[edgeID] = true
				fmt.Fprintf(&sb, "  %s-%s: cost=%s\n", from, to, FormatCost(cost))
				continue
			}
			fmt.Fprintf(&sb, "  %s->%s: cost=%s\n", from, to, FormatCost(cost))
		}
	}
	return sb.String()
}

func makeEdgeID(from, to string) string {
	if from < to {
		return from + "-" + to
	}
	return to + "-" + from
}
