package dvnet

import (
	"context"
	"fmt"
	"io"

	"dvnet/internal/route"
)

// 对外暴露的类型
type (
	Result      = route.Result
	RoundReport = route.RoundReport
	Reporter    = route.Reporter
	RouteTable  = route.RouteTable
	Route       = route.Route
)

// 对外暴露的错误
var (
	ErrInvalidTopology = route.ErrInvalidTopology
	ErrUnknownNeighbor = route.ErrUnknownNeighbor
	ErrNotConverged    = route.ErrNotConverged
	ErrRouteMismatch   = route.ErrRouteMismatch
)

// Config 模拟配置
type Config struct {
	// 可选项，默认 "configs/app.toml"，文件不存在时使用默认值
	AppConfigPath string
	// 拓扑文件（.toml / .yaml），为空时使用内置示例拓扑
	TopologyPath string

	// 以下非空时覆盖 app.toml 中的同名设置
	Mode      string // "gauss-seidel" 或 "jacobi"
	Transport string // "local" 或 "grpc"
	Verify    bool

	// Output 非空时每轮结束后写出所有路由表
	Output io.Writer
	// Reporter 额外的结果接收方
	Reporter Reporter
	// Quiet 丢弃日志
	Quiet bool
}

// Simulator 封装一次距离向量模拟
type Simulator struct {
	sim *route.Simulation
}

// New 创建模拟器
// 示例：
//
//	sim, err := dvnet.New(dvnet.Config{
//	    TopologyPath: "configs/topology.toml",
//	    Mode:         "jacobi",
//	})
func New(cfg Config) (*Simulator, error) {
	if cfg.AppConfigPath == "" {
		cfg.AppConfigPath = "configs/app.toml"
	}

	rtConfig, err := route.LoadRuntimeConfig(cfg.AppConfigPath, cfg.TopologyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load runtime config: %w", err)
	}

	simCfg := &rtConfig.AppConfig.Simulation
	if cfg.Mode != "" {
		simCfg.Mode = cfg.Mode
	}
	if cfg.Transport != "" {
		simCfg.Transport = cfg.Transport
	}
	if cfg.Verify {
		simCfg.Verify = true
	}
	if cfg.Quiet {
		rtConfig.AppConfig.Log.Output = "none"
	}

	var reporters []route.Reporter
	if cfg.Output != nil {
		reporters = append(reporters, route.NewTextReporter(cfg.Output))
	}
	if cfg.Reporter != nil {
		reporters = append(reporters, cfg.Reporter)
	}

	sim := route.NewSimulation(rtConfig, route.MultiReporter(reporters...))
	if err := sim.Init(); err != nil {
		rtConfig.Close()
		return nil, fmt.Errorf("failed to initialize simulation: %w", err)
	}
	return &Simulator{sim: sim}, nil
}

// Run 运行到收敛
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	return s.sim.Run(ctx)
}

// Serve 启动路由表 gRPC 服务，返回监听地址
func (s *Simulator) Serve() (string, error) {
	if err := s.sim.StartTableServer(); err != nil {
		return "", err
	}
	return s.sim.Addr(), nil
}

// Nodes 返回节点 ID（处理顺序）
func (s *Simulator) Nodes() []string {
	return s.sim.Network().IDs()
}

// Stop 释放资源
func (s *Simulator) Stop() {
	s.sim.Stop()
}

// Simulate 创建、运行并释放一次模拟
func Simulate(ctx context.Context, cfg Config) (*Result, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	defer s.Stop()

	return s.Run(ctx)
}
