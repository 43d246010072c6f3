package route

import (
	"context"
	"fmt"
)

// TableSource 邻居距离向量的获取方式
// 本地直接读取节点路由表，或经 gRPC 从 TableServer 拉取
type TableSource interface {
	FetchVector(ctx context.Context, nodeID string) (DistanceVector, error)
}

// LocalSource 直接读取网络中节点的实时路由表
type LocalSource struct {
	net *Network
}

func NewLocalSource(net *Network) *LocalSource {
	return &LocalSource{net: net}
}

// FetchVector 返回节点当前距离向量，节点不存在时返回 ErrNodeNotFound
func (s *LocalSource) FetchVector(_ context.Context, nodeID string) (DistanceVector, error) {
	node, ok := s.net.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return node.Vector(), nil
}

// snapshotSource 一轮开始时冻结的距离向量（Jacobi 模式）
type snapshotSource struct {
	vectors map[string]DistanceVector
}

func newSnapshotSource(ctx context.Context, src TableSource, ids []string) (*snapshotSource, error) {
	s := &snapshotSource{vectors: make(map[string]DistanceVector, len(ids))}
	for _, id := range ids {
		v, err := src.FetchVector(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", id, err)
		}
		s.vectors[id] = v
	}
	return s, nil
}

func (s *snapshotSource) FetchVector(_ context.Context, nodeID string) (DistanceVector, error) {
	v, ok := s.vectors[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return v.Clone(), nil
}
