package route

import (
	"errors"
	"math"
)

// Unreachable 不可达距离的哨兵值
var Unreachable = math.Inf(1)

var (
	// ErrInvalidTopology 拓扑输入不合法（负代价、自环、重复节点 ID 等）
	ErrInvalidTopology = errors.New("route: invalid topology")

	// ErrUnknownNeighbor 节点引用了网络中不存在的邻居
	ErrUnknownNeighbor = errors.New("route: unknown neighbor")

	// ErrNodeNotFound 查询的节点不存在
	ErrNodeNotFound = errors.New("route: node not found")

	// ErrNotConverged 超过最大轮数仍未收敛
	ErrNotConverged = errors.New("route: simulation did not converge")

	// ErrRouteMismatch 收敛结果与最短路径参考结果不一致
	ErrRouteMismatch = errors.New("route: route mismatch")
)

// Route 表示到某个目的地的路由条目
type Route struct {
	Destination string  // 目的节点 ID
	NextHop     string  // 下一跳节点 ID
	Cost        float64 // 到目的地的总代价
}

// DistanceVector 节点对邻居公布的距离向量 destination -> distance
type DistanceVector map[string]float64

// Clone 复制距离向量
func (v DistanceVector) Clone() DistanceVector {
	out := make(DistanceVector, len(v))
	for dest, dist := range v {
		out[dest] = dist
	}
	return out
}

// Distance 返回到 dest 的距离，不存在时返回 Unreachable
func (v DistanceVector) Distance(dest string) float64 {
	if dist, ok := v[dest]; ok {
		return dist
	}
	return Unreachable
}

// AddCost 饱和加法：任一操作数不可达则结果不可达
func AddCost(a, b float64) float64 {
	if IsUnreachable(a) || IsUnreachable(b) {
		return Unreachable
	}
	sum := a + b
	if math.IsInf(sum, 1) {
		return Unreachable
	}
	return sum
}

// IsUnreachable 判断距离是否为不可达
func IsUnreachable(d float64) bool {
	return math.IsInf(d, 1)
}

// validCost 链路代价必须是有限的非负数
func validCost(cost float64) bool {
	return !math.IsNaN(cost) && !math.IsInf(cost, 0) && cost >= 0
}
