package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const (
	tableServiceName   = "dvnet.TableService"
	methodGetVector    = "/" + tableServiceName + "/GetVector"
	methodListNodes    = "/" + tableServiceName + "/ListNodes"
	tableCodecName     = "json"
	tableServiceSchema = "dvnet/table_service.json"
)

// ============ 消息定义 ============

type GetVectorRequest struct {
	NodeID string `json:"node_id"`
}

type VectorEntry struct {
	Destination string  `json:"destination"`
	NextHop     string  `json:"next_hop"`
	Cost        float64 `json:"cost"`
}

type GetVectorResponse struct {
	NodeID  string        `json:"node_id"`
	Entries []VectorEntry `json:"entries"`
}

type ListNodesRequest struct{}

type ListNodesResponse struct {
	NodeIDs []string `json:"node_ids"`
}

// jsonCodec 以 JSON 编码消息，替代 protobuf 生成代码
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                               { return tableCodecName }

// TableServiceServer 路由表查询服务
type TableServiceServer interface {
	GetVector(context.Context, *GetVectorRequest) (*GetVectorResponse, error)
	ListNodes(context.Context, *ListNodesRequest) (*ListNodesResponse, error)
}

var tableServiceDesc = grpc.ServiceDesc{
	ServiceName: tableServiceName,
	HandlerType: (*TableServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetVector", Handler: getVectorHandler},
		{MethodName: "ListNodes", Handler: listNodesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: tableServiceSchema,
}

func getVectorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetVectorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableServiceServer).GetVector(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetVector}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TableServiceServer).GetVector(ctx, req.(*GetVectorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listNodesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListNodesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TableServiceServer).ListNodes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListNodes}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TableServiceServer).ListNodes(ctx, req.(*ListNodesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ============ TableServer ============

// TableServer 通过 gRPC 暴露网络中各节点的实时路由表
type TableServer struct {
	network *Network
	logger  logrus.FieldLogger
}

func NewTableServer(network *Network, logger logrus.FieldLogger) *TableServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TableServer{network: network, logger: logger}
}

func (s *TableServer) GetVector(ctx context.Context, req *GetVectorRequest) (*GetVectorResponse, error) {
	node, ok := s.network.Node(req.NodeID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "node %s not found", req.NodeID)
	}

	routes := node.Table().GetAllRoutes()
	resp := &GetVectorResponse{
		NodeID:  node.ID(),
		Entries: make([]VectorEntry, 0, len(routes)),
	}
	for _, dest := range sortedKeys(routes) {
		route := routes[dest]
		// JSON 无法表示 +Inf，不可达条目本就不会出现在路由表中
		if IsUnreachable(route.Cost) {
			continue
		}
		resp.Entries = append(resp.Entries, VectorEntry{
			Destination: route.Destination,
			NextHop:     route.NextHop,
			Cost:        route.Cost,
		})
	}
	return resp, nil
}

func (s *TableServer) ListNodes(ctx context.Context, req *ListNodesRequest) (*ListNodesResponse, error) {
	return &ListNodesResponse{NodeIDs: s.network.IDs()}, nil
}

// NewGRPCServer 创建使用 JSON 编解码的 gRPC 服务器并注册 TableServer
func NewGRPCServer(tables *TableServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	gs := grpc.NewServer(opts...)
	gs.RegisterService(&tableServiceDesc, tables)
	return gs
}

// ServeTables 在 lis 上启动路由表服务，返回的服务器由调用方负责停止
func ServeTables(lis net.Listener, network *Network, logger logrus.FieldLogger) *grpc.Server {
	tables := NewTableServer(network, logger)
	gs := NewGRPCServer(tables)
	go func() {
		tables.logger.Infof("Table server started on %s", lis.Addr())
		if err := gs.Serve(lis); err != nil {
			tables.logger.WithError(err).Error("Table server error")
		}
	}()
	return gs
}

// ============ TableClient ============

// TableClient 通过 gRPC 拉取距离向量，实现 TableSource
type TableClient struct {
	conn *grpc.ClientConn
}

// DialTableClient 连接路由表服务
func DialTableClient(addr string, opts ...grpc.DialOption) (*TableClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &TableClient{conn: conn}, nil
}

// Routes 获取节点完整路由条目
func (c *TableClient) Routes(ctx context.Context, nodeID string) ([]Route, error) {
	resp := new(GetVectorResponse)
	if err := c.conn.Invoke(ctx, methodGetVector, &GetVectorRequest{NodeID: nodeID}, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}
		return nil, fmt.Errorf("get vector %s: %w", nodeID, err)
	}

	routes := make([]Route, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		routes = append(routes, Route{Destination: e.Destination, NextHop: e.NextHop, Cost: e.Cost})
	}
	return routes, nil
}

// FetchVector 实现 TableSource
func (c *TableClient) FetchVector(ctx context.Context, nodeID string) (DistanceVector, error) {
	routes, err := c.Routes(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	v := make(DistanceVector, len(routes))
	for _, r := range routes {
		v[r.Destination] = r.Cost
	}
	return v, nil
}

// ListNodes 列出服务端网络中的节点
func (c *TableClient) ListNodes(ctx context.Context) ([]string, error) {
	resp := new(ListNodesResponse)
	if err := c.conn.Invoke(ctx, methodListNodes, &ListNodesRequest{}, resp); err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return resp.NodeIDs, nil
}

func (c *TableClient) Close() error {
	return c.conn.Close()
}
