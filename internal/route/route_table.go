package route

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// RouteTable 节点路由表，gRPC 服务端会并发读取，因此加锁
type RouteTable struct {
	mtx        sync.RWMutex
	sourceNode string
	routes     map[string]*Route
}

// NewRouteTable 创建路由表
// 参数：
//   - sourceNode: 本节点的 ID
func NewRouteTable(sourceNode string) *RouteTable {
	return &RouteTable{
		sourceNode: sourceNode,
		routes:     make(map[string]*Route),
	}
}

// SourceNode 返回路由表所属节点
func (rt *RouteTable) SourceNode() string {
	return rt.sourceNode
}

// GetRoute 获取到某个目的地的路由
// 参数：
//   - destination: 目的节点 ID
//
// 返回：
//   - *Route: 路由信息（副本）
//   - error: 如果路由不存在返回错误
func (rt *RouteTable) GetRoute(destination string) (*Route, error) {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	value, ok := rt.routes[destination]
	if !ok {
		return nil, fmt.Errorf("route %s not found", destination)
	}
	r := *value
	return &r, nil
}

// GetNextHop 获取到某个目的地的下一跳
// 参数：
//   - destination: 目的节点 ID
//
// 返回：
//   - string: 下一跳节点 ID
//   - error: 如果路由不存在返回错误
func (rt *RouteTable) GetNextHop(destination string) (string, error) {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	route, ok := rt.routes[destination]
	if !ok {
		return "", fmt.Errorf("route %s not found", destination)
	}
	return route.NextHop, nil
}

// Distance 返回到目的地的距离，不存在时为 Unreachable
func (rt *RouteTable) Distance(destination string) float64 {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	route, ok := rt.routes[destination]
	if !ok {
		return Unreachable
	}
	return route.Cost
}

// AddRoute 添加或更新一条路由
// 参数：
//   - route: 路由信息
func (rt *RouteTable) AddRoute(route *Route) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	rt.routes[route.Destination] = route
}

// improve 在候选代价更小（或条目不存在）时更新路由，返回是否更新
func (rt *RouteTable) improve(destination, nextHop string, cost float64) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if cur, ok := rt.routes[destination]; ok && cur.Cost <= cost {
		return false
	}
	rt.routes[destination] = &Route{
		Destination: destination,
		NextHop:     nextHop,
		Cost:        cost,
	}
	return true
}

// GetAllRoutes 获取所有路由（只读副本）
// 返回：
//   - map[string]*Route: destination -> Route 的映射
func (rt *RouteTable) GetAllRoutes() map[string]*Route {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	routesCopy := make(map[string]*Route, len(rt.routes))
	for dest, route := range rt.routes {
		r := *route
		routesCopy[dest] = &r
	}
	return routesCopy
}

// Destinations 返回按字典序排列的目的地列表
func (rt *RouteTable) Destinations() []string {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	return sortedKeys(rt.routes)
}

// Vector 导出距离向量副本
func (rt *RouteTable) Vector() DistanceVector {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	v := make(DistanceVector, len(rt.routes))
	for dest, route := range rt.routes {
		v[dest] = route.Cost
	}
	return v
}

// Clone 深拷贝路由表
func (rt *RouteTable) Clone() *RouteTable {
	return &RouteTable{
		sourceNode: rt.sourceNode,
		routes:     rt.GetAllRoutes(),
	}
}

// Size 返回路由表中的路由数量
func (rt *RouteTable) Size() int {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()
	return len(rt.routes)
}

// String 返回路由表的字符串表示（用于调试）
// 格式示例：
//
//	Route Table for Node A:
//	Destination  NextHop  Cost
//	A            A        0
//	B            B        1
func (rt *RouteTable) String() string {
	rt.mtx.RLock()
	defer rt.mtx.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Route Table for Node %s:\n", rt.sourceNode)
	fmt.Fprintf(&sb, "%-12s %-8s %s\n", "Destination", "NextHop", "Cost")
	for _, dest := range sortedKeys(rt.routes) {
		route := rt.routes[dest]
		fmt.Fprintf(&sb, "%-12s %-8s %s\n", route.Destination, route.NextHop, FormatCost(route.Cost))
	}
	return sb.String()
}

// FormatCost 格式化代价，整数不带小数点
func FormatCost(cost float64) string {
	if IsUnreachable(cost) {
		return "inf"
	}
	return fmt.Sprintf("%g", cost)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
