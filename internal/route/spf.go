package route

import (
	"fmt"
	"math"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
	"github.com/hashicorp/go-multierror"
)

// SPFCalculator SPF 路径计算器（Dijkstra），作为距离向量收敛结果的参考
type SPFCalculator struct{}

// NewSPFCalculator 创建 SPF 计算器
func NewSPFCalculator() *SPFCalculator {
	return &SPFCalculator{}
}

// ComputeRoutes 计算从源节点出发的最短路径路由表
// 参数：
//   - sourceNodeID: 源节点 ID
//   - topology: 拓扑
//
// 返回：
//   - *RouteTable: 生成的路由表，包含源节点自身（代价 0），不含不可达节点
//   - error: 源节点不存在或出现非法代价时返回错误
func (calc *SPFCalculator) ComputeRoutes(sourceNodeID string, topology *Topology) (*RouteTable, error) {
	if !topology.HasNode(sourceNodeID) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, sourceNodeID)
	}

	allNodes := topology.GetAllNodes()
	nodeCount := len(allNodes)

	distance := make(map[string]float64, nodeCount)
	nextHop := make(map[string]string, nodeCount)
	for _, id := range allNodes {
		distance[id] = math.Inf(1)
	}
	distance[sourceNodeID] = 0
	nextHop[sourceNodeID] = sourceNodeID

	type Item struct {
		nodeID   string
		priority float64
	}

	pq := priorityqueue.NewWith(func(a, b interface{}) int {
		itemA := a.(*Item)
		itemB := b.(*Item)
		return utils.Float64Comparator(itemA.priority, itemB.priority)
	})
	pq.Enqueue(&Item{nodeID: sourceNodeID, priority: 0})

	neighborCache := make(map[string]map[string]float64)

	for !pq.Empty() {
		item, _ := pq.Dequeue()
		currentNodeID := item.(*Item).nodeID
		currentCost := item.(*Item).priority

		// 过期条目
		if currentCost > distance[currentNodeID] {
			continue
		}

		neighbors, ok := neighborCache[currentNodeID]
		if !ok {
			neighbors = topology.GetNeighbors(currentNodeID)
			neighborCache[currentNodeID] = neighbors
		}

		for neighborID, linkCost := range neighbors {
			if !validCost(linkCost) {
				return nil, fmt.Errorf("%w: link %s->%s cost %v", ErrInvalidTopology, currentNodeID, neighborID, linkCost)
			}
			// 拓扑中未声明的节点不参与计算
			known, ok := distance[neighborID]
			if !ok {
				continue
			}

			newCost := currentCost + linkCost
			if newCost < known {
				distance[neighborID] = newCost
				if currentNodeID == sourceNodeID {
					nextHop[neighborID] = neighborID
				} else {
					nextHop[neighborID] = nextHop[currentNodeID]
				}
				pq.Enqueue(&Item{nodeID: neighborID, priority: newCost})
			}
		}
	}

	routeTable := NewRouteTable(sourceNodeID)
	for destNodeID, dist := range distance {
		if math.IsInf(dist, 1) {
			continue
		}
		routeTable.AddRoute(&Route{
			Destination: destNodeID,
			NextHop:     nextHop[destNodeID],
			Cost:        dist,
		})
	}
	return routeTable, nil
}

// Verify 用 SPF 结果逐条核对收敛后的路由表
// 只比较距离；等价路径下一跳可能不同，不作为错误
func Verify(net *Network, result *Result) error {
	calc := NewSPFCalculator()
	topology := net.Topology()

	var errs *multierror.Error
	for _, id := range net.IDs() {
		got, ok := result.Table(id)
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: no table for node %s", ErrRouteMismatch, id))
			continue
		}
		want, err := calc.ComputeRoutes(id, topology)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		for _, dest := range net.IDs() {
			g, w := got.Distance(dest), want.Distance(dest)
			if !sameDistance(g, w) {
				errs = multierror.Append(errs, fmt.Errorf("%w: %s->%s converged=%s shortest=%s",
					ErrRouteMismatch, id, dest, FormatCost(g), FormatCost(w)))
			}
		}
	}
	return errs.ErrorOrNil()
}

// sameDistance 浮点求和顺序不同，允许极小误差
func sameDistance(a, b float64) bool {
	if IsUnreachable(a) || IsUnreachable(b) {
		return IsUnreachable(a) == IsUnreachable(b)
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}
