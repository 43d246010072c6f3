package route

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LogConfig 日志配置
type LogConfig struct {
	Output string `toml:"output"`  // "file"、"stdout" 或 "none"
	LogDir string `toml:"log_dir"` // 日志目录
	Level  string `toml:"level"`   // 日志级别
	Format string `toml:"format"`  // "text" 或 "json"
}

// SimulationConfig 模拟配置
type SimulationConfig struct {
	Mode      string `toml:"mode"`       // "gauss-seidel" 或 "jacobi"
	Transport string `toml:"transport"`  // "local" 或 "grpc"
	GRPCAddr  string `toml:"grpc_addr"`  // grpc 模式下路由表服务监听地址
	MaxRounds int    `toml:"max_rounds"` // 0 表示不限制
	Verify    bool   `toml:"verify"`     // 收敛后用 SPF 校验
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// AppConfig 应用通用配置
type AppConfig struct {
	Log        LogConfig        `toml:"log"`
	Simulation SimulationConfig `toml:"simulation"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// NodeConfig 节点配置，Neighbors 为有向的邻居代价
type NodeConfig struct {
	ID        string             `toml:"id" yaml:"id"`
	Neighbors map[string]float64 `toml:"neighbors" yaml:"neighbors"`
}

// EdgeConfig 边配置，默认无向
type EdgeConfig struct {
	From     string  `toml:"from" yaml:"from"`
	To       string  `toml:"to" yaml:"to"`
	Cost     float64 `toml:"cost" yaml:"cost"`
	Directed bool    `toml:"directed" yaml:"directed"`
}

// Config 拓扑配置文件结构
type Config struct {
	Nodes []NodeConfig `toml:"nodes" yaml:"nodes"`
	Edges []EdgeConfig `toml:"edges" yaml:"edges"`
}

// LoadConfig 从文件加载拓扑配置，.yaml/.yml 按 YAML 解析，其余按 TOML
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := "toml"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return ParseConfig(data, format)
}

// ParseConfig 解析拓扑配置
func ParseConfig(data []byte, format string) (*Config, error) {
	var config Config
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &config, nil
}

// GetNodeConfig 根据节点ID获取配置
func (c *Config) GetNodeConfig(nodeID string) (*NodeConfig, error) {
	for i := range c.Nodes {
		if c.Nodes[i].ID == nodeID {
			return &c.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: node %s not found in config", ErrNodeNotFound, nodeID)
}

// GetNodeEdges 获取与指定节点相关的所有边（检查from和to）
func (c *Config) GetNodeEdges(nodeID string) []EdgeConfig {
	var edges []EdgeConfig
	for _, edge := range c.Edges {
		if edge.From == nodeID || edge.To == nodeID {
			edges = append(edges, edge)
		}
	}
	return edges
}

// BuildTopology 合并 nodes 与 edges 生成拓扑
// 节点顺序：先 [[nodes]] 的顺序，再按 [[edges]] 中首次出现的顺序
func (c *Config) BuildTopology() (*Topology, error) {
	var result *multierror.Error
	t := NewTopology()

	setCost := func(from, to string, cost float64) {
		if prev, ok := t.GetCost(from, to); ok && prev != cost {
			result = multierror.Append(result, fmt.Errorf("%w: conflicting cost for %s->%s (%v vs %v)",
				ErrInvalidTopology, from, to, prev, cost))
			return
		}
		t.SetCost(from, to, cost)
	}

	seen := make(map[string]bool, len(c.Nodes))
	for _, node := range c.Nodes {
		if node.ID == "" {
			result = multierror.Append(result, fmt.Errorf("%w: node with empty id", ErrInvalidTopology))
			continue
		}
		if seen[node.ID] {
			result = multierror.Append(result, fmt.Errorf("%w: duplicate node id %s", ErrInvalidTopology, node.ID))
			continue
		}
		seen[node.ID] = true
		t.AddNode(node.ID)
	}
	for _, node := range c.Nodes {
		if node.ID == "" {
			continue
		}
		for _, neighbor := range sortedKeys(node.Neighbors) {
			setCost(node.ID, neighbor, node.Neighbors[neighbor])
		}
	}

	for _, edge := range c.Edges {
		if edge.From == "" || edge.To == "" {
			result = multierror.Append(result, fmt.Errorf("%w: edge with empty endpoint %q-%q", ErrInvalidTopology, edge.From, edge.To))
			continue
		}
		t.AddNode(edge.From)
		t.AddNode(edge.To)
		setCost(edge.From, edge.To, edge.Cost)
		if !edge.Directed {
			setCost(edge.To, edge.From, edge.Cost)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

// DefaultTopology 内置示例拓扑 A–B(1), A–C(4), B–C(2), B–D(5), C–D(1)
func DefaultTopology() *Topology {
	t := NewTopology()
	for _, id := range []string{"A", "B", "C", "D"} {
		t.AddNode(id)
	}
	t.UpdateLink("A", "B", 1)
	t.UpdateLink("A", "C", 4)
	t.UpdateLink("B", "C", 2)
	t.UpdateLink("B", "D", 5)
	t.UpdateLink("C", "D", 1)
	return t
}

// LoadAppConfig 加载应用通用配置
func LoadAppConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read app config file: %w", err)
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse app config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// DefaultAppConfig 默认配置
func DefaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *AppConfig) applyDefaults() {
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.LogDir == "" {
		c.Log.LogDir = "log"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Simulation.Mode == "" {
		c.Simulation.Mode = ModeGaussSeidel.String()
	}
	if c.Simulation.Transport == "" {
		c.Simulation.Transport = TransportLocal
	}
	if c.Simulation.GRPCAddr == "" {
		c.Simulation.GRPCAddr = "127.0.0.1:0"
	}
}

// RuntimeConfig 运行时配置（合并了配置文件和命令行参数）
type RuntimeConfig struct {
	RunName      string
	TopologyPath string
	Topology     *Topology
	AppConfig    *AppConfig
	Logger       *logrus.Logger
	logFile      *os.File // 用于延迟关闭日志文件
}

// LoadRuntimeConfig 加载运行时配置
// topologyPath 为空时使用内置示例拓扑
func LoadRuntimeConfig(appConfigPath, topologyPath, runName string) (*RuntimeConfig, error) {
	appCfg, err := LoadAppConfig(appConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load app config: %v, using defaults\n", err)
		appCfg = DefaultAppConfig()
	}

	if runName == "" {
		runName = "dvnet"
	}
	rc := &RuntimeConfig{
		RunName:      runName,
		TopologyPath: topologyPath,
		AppConfig:    appCfg,
		Logger:       logrus.New(),
	}

	if topologyPath == "" {
		rc.Topology = DefaultTopology()
		return rc, nil
	}

	cfg, err := LoadConfig(topologyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	rc.Topology, err = cfg.BuildTopology()
	if err != nil {
		return nil, fmt.Errorf("failed to build topology: %w", err)
	}
	return rc, nil
}

// SetupLogger 根据配置设置日志输出
func (rc *RuntimeConfig) SetupLogger() error {
	logCfg := rc.AppConfig.Log

	level, err := logrus.ParseLevel(logCfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	rc.Logger.SetLevel(level)

	switch logCfg.Format {
	case "json":
		rc.Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		rc.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	switch logCfg.Output {
	case "stdout":
		rc.Logger.SetOutput(os.Stdout)
		return nil
	case "none":
		rc.Logger.SetOutput(io.Discard)
		return nil
	}

	if err := os.MkdirAll(logCfg.LogDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(
		filepath.Join(logCfg.LogDir, rc.RunName+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0666,
	)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	rc.logFile = logFile
	rc.Logger.SetOutput(logFile)
	return nil
}

// SetOutput 替换日志输出（测试和 -quiet 使用）
func (rc *RuntimeConfig) SetOutput(w io.Writer) {
	rc.Logger.SetOutput(w)
}

// Close 关闭日志文件（如果有）
func (rc *RuntimeConfig) Close() error {
	if rc.logFile != nil {
		return rc.logFile.Close()
	}
	return nil
}
