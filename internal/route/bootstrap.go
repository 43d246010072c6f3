package route

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

const (
	TransportLocal = "local"
	TransportGRPC  = "grpc"
)

// Simulation 代表一次完整的模拟运行
type Simulation struct {
	config     *RuntimeConfig
	network    *Network
	metrics    *Metrics
	reporter   Reporter
	logger     *logrus.Entry
	mode       Mode
	grpcServer *grpc.Server
	listener   net.Listener
	client     *TableClient
}

// NewSimulation 创建一个新的 Simulation 实例
func NewSimulation(config *RuntimeConfig, reporter Reporter) *Simulation {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Simulation{
		config:   config,
		reporter: reporter,
	}
}

// Init 初始化日志、网络与指标
func (s *Simulation) Init() error {
	// 1. 设置日志输出
	if err := s.config.SetupLogger(); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	s.logger = s.config.Logger.WithField("run", s.config.RunName)

	simCfg := s.config.AppConfig.Simulation
	mode, err := ParseMode(simCfg.Mode)
	if err != nil {
		return err
	}
	s.mode = mode

	switch simCfg.Transport {
	case TransportLocal, TransportGRPC:
	default:
		return fmt.Errorf("unknown transport %q", simCfg.Transport)
	}

	// 2. 构建网络
	s.network, err = NetworkFromTopology(s.config.Topology)
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	s.logger.Debugf("\n%s", s.config.Topology.String())

	// 3. 指标
	if s.config.AppConfig.Metrics.Enabled {
		s.metrics, err = NewMetrics()
		if err != nil {
			return fmt.Errorf("failed to setup metrics: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"nodes":     s.network.Len(),
		"mode":      s.mode.String(),
		"transport": simCfg.Transport,
	}).Info("Simulation initialized")
	return nil
}

// Run 运行到收敛，配置了 verify 时用 SPF 校验结果
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.network == nil {
		return nil, fmt.Errorf("simulation not initialized")
	}
	simCfg := s.config.AppConfig.Simulation

	opts := []DriverOption{
		WithMode(s.mode),
		WithReporter(MultiReporter(s.reporter, NewLogReporter(s.logger))),
		WithMetrics(s.metrics),
		WithLogger(s.logger),
		WithMaxRounds(simCfg.MaxRounds),
	}

	if simCfg.Transport == TransportGRPC {
		if err := s.StartTableServer(); err != nil {
			return nil, err
		}
		client, err := DialTableClient(s.listener.Addr().String())
		if err != nil {
			return nil, err
		}
		s.client = client
		opts = append(opts, WithSource(client))
	}

	result, err := NewDriver(s.network, opts...).Run(ctx)
	if err != nil {
		return nil, err
	}

	if simCfg.Verify {
		if err := Verify(s.network, result); err != nil {
			return result, fmt.Errorf("verification failed: %w", err)
		}
		s.logger.Info("Converged tables match shortest paths")
	}
	if s.metrics != nil {
		s.logger.WithFields(logrus.Fields{
			"rounds":        s.metrics.Counter("rounds"),
			"relax_calls":   s.metrics.Counter("relax", "calls"),
			"relax_updates": s.metrics.Counter("relax", "updates"),
		}).Info("Simulation metrics")
	}
	return result, nil
}

// StartTableServer 启动路由表 gRPC 服务（已启动时直接返回）
func (s *Simulation) StartTableServer() error {
	if s.grpcServer != nil {
		return nil
	}
	if s.network == nil {
		return fmt.Errorf("simulation not initialized")
	}

	lis, err := net.Listen("tcp", s.config.AppConfig.Simulation.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = lis
	s.grpcServer = ServeTables(lis, s.network, s.logger)
	return nil
}

// Addr 返回路由表服务地址，未启动时为空
func (s *Simulation) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Simulation) Network() *Network {
	return s.network
}

func (s *Simulation) Metrics() *Metrics {
	return s.metrics
}

func (s *Simulation) Mode() Mode {
	return s.mode
}

// Stop 停止服务并释放资源
func (s *Simulation) Stop() {
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
		s.grpcServer = nil
		s.listener = nil
	}
	if s.logger != nil {
		s.logger.Debug("Simulation stopped")
	}
	s.config.Close()
}
