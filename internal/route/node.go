package route

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Node 距离向量路由节点
// 邻居代价在构造后不可变，路由表只能通过 Relax 修改
type Node struct {
	id        string
	neighbors map[string]float64
	// 邻居按字典序排列，保证每轮遍历顺序确定
	neighborOrder []string
	table         *RouteTable
}

// NodeSpec 节点描述（拓扑输入）
type NodeSpec struct {
	ID        string
	Neighbors map[string]float64
}

// NewNode 创建节点，路由表初始化为 {self: 0} ∪ neighborCosts
func NewNode(id string, neighborCosts map[string]float64) (*Node, error) {
	var result *multierror.Error
	if id == "" {
		result = multierror.Append(result, fmt.Errorf("%w: empty node id", ErrInvalidTopology))
	}

	neighbors := make(map[string]float64, len(neighborCosts))
	for neighbor, cost := range neighborCosts {
		switch {
		case neighbor == "":
			result = multierror.Append(result, fmt.Errorf("%w: node %s has a neighbor with empty id", ErrInvalidTopology, id))
		case neighbor == id:
			result = multierror.Append(result, fmt.Errorf("%w: node %s lists itself as neighbor", ErrInvalidTopology, id))
		case !validCost(cost):
			result = multierror.Append(result, fmt.Errorf("%w: node %s cost to %s is %v", ErrInvalidTopology, id, neighbor, cost))
		default:
			neighbors[neighbor] = cost
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	n := &Node{
		id:            id,
		neighbors:     neighbors,
		neighborOrder: sortedKeys(neighbors),
		table:         NewRouteTable(id),
	}
	n.table.AddRoute(&Route{Destination: id, NextHop: id, Cost: 0})
	for _, neighbor := range n.neighborOrder {
		n.table.AddRoute(&Route{Destination: neighbor, NextHop: neighbor, Cost: neighbors[neighbor]})
	}
	return n, nil
}

// ID 返回节点 ID
func (n *Node) ID() string {
	return n.id
}

// NeighborIDs 返回排序后的邻居 ID
func (n *Node) NeighborIDs() []string {
	out := make([]string, len(n.neighborOrder))
	copy(out, n.neighborOrder)
	return out
}

// Neighbors 返回邻居代价副本
func (n *Node) Neighbors() map[string]float64 {
	out := make(map[string]float64, len(n.neighbors))
	for k, v := range n.neighbors {
		out[k] = v
	}
	return out
}

// Cost 返回到直连邻居的链路代价，非邻居返回 Unreachable
func (n *Node) Cost(neighbor string) float64 {
	if cost, ok := n.neighbors[neighbor]; ok {
		return cost
	}
	return Unreachable
}

// Table 返回节点路由表
func (n *Node) Table() *RouteTable {
	return n.table
}

// Vector 返回当前距离向量副本
func (n *Node) Vector() DistanceVector {
	return n.table.Vector()
}

// Distance 返回到 dest 的当前最优距离
func (n *Node) Distance(dest string) float64 {
	return n.table.Distance(dest)
}

// Relax 用邻居 via 的距离向量松弛本节点路由表
// 参数：
//   - peer: 邻居的完整距离向量
//   - via: 向量来源的邻居 ID；不是直连邻居时代价视为不可达，调用退化为空操作
//
// 返回：
//   - bool: 本次调用是否更新了至少一条路由
func (n *Node) Relax(peer DistanceVector, via string) bool {
	linkCost := n.Cost(via)
	if IsUnreachable(linkCost) {
		return false
	}

	changed := false
	for dest, dist := range peer {
		// 自身条目恒为 0
		if dest == n.id {
			continue
		}
		candidate := AddCost(dist, linkCost)
		if IsUnreachable(candidate) {
			continue
		}
		if n.table.improve(dest, via, candidate) {
			changed = true
		}
	}
	return changed
}

// String 返回节点路由表
func (n *Node) String() string {
	return n.table.String()
}
