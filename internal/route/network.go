package route

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Network 持有全部节点，节点顺序即每轮处理顺序
type Network struct {
	nodes []*Node
	index map[string]*Node
}

// NewNetwork 按给定顺序构建网络
// 邻居是否存在不在这里检查，由 Driver 在松弛时报告 ErrUnknownNeighbor
func NewNetwork(specs []NodeSpec) (*Network, error) {
	var result *multierror.Error

	net := &Network{
		nodes: make([]*Node, 0, len(specs)),
		index: make(map[string]*Node, len(specs)),
	}
	for _, spec := range specs {
		if _, dup := net.index[spec.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("%w: duplicate node id %s", ErrInvalidTopology, spec.ID))
			continue
		}
		node, err := NewNode(spec.ID, spec.Neighbors)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		net.nodes = append(net.nodes, node)
		net.index[node.ID()] = node
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return net, nil
}

// NetworkFromTopology 从拓扑描述构建网络
func NetworkFromTopology(t *Topology) (*Network, error) {
	return NewNetwork(t.Specs())
}

// Nodes 返回节点列表（处理顺序）
func (n *Network) Nodes() []*Node {
	out := make([]*Node, len(n.nodes))
	copy(out, n.nodes)
	return out
}

// Node 按 ID 查找节点
func (n *Network) Node(id string) (*Node, bool) {
	node, ok := n.index[id]
	return node, ok
}

// IDs 返回节点 ID（处理顺序）
func (n *Network) IDs() []string {
	ids := make([]string, len(n.nodes))
	for i, node := range n.nodes {
		ids[i] = node.ID()
	}
	return ids
}

func (n *Network) Len() int {
	return len(n.nodes)
}

// Tables 返回所有节点路由表的快照
func (n *Network) Tables() []*RouteTable {
	tables := make([]*RouteTable, len(n.nodes))
	for i, node := range n.nodes {
		tables[i] = node.Table().Clone()
	}
	return tables
}

// Topology 由各节点的邻居代价还原拓扑，用于独立校验
func (n *Network) Topology() *Topology {
	t := NewTopology()
	for _, node := range n.nodes {
		t.AddNode(node.ID())
	}
	for _, node := range n.nodes {
		for neighbor, cost := range node.neighbors {
			t.SetCost(node.ID(), neighbor, cost)
		}
	}
	return t
}
