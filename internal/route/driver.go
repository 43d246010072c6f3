package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Mode 一轮内距离向量的可见性
type Mode int

const (
	// ModeGaussSeidel 本轮内已更新的路由表立即对后续节点可见（参考行为）
	ModeGaussSeidel Mode = iota
	// ModeJacobi 每轮开始时对所有距离向量做快照，本轮更新下一轮才可见
	ModeJacobi
)

func (m Mode) String() string {
	switch m {
	case ModeGaussSeidel:
		return "gauss-seidel"
	case ModeJacobi:
		return "jacobi"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode 解析模式名，空串为默认模式
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gauss-seidel", "gaussseidel", "in-place":
		return ModeGaussSeidel, nil
	case "jacobi", "snapshot":
		return ModeJacobi, nil
	default:
		return 0, fmt.Errorf("unknown exchange mode %q", s)
	}
}

// Result 收敛结果
type Result struct {
	RunID string
	Mode  Mode
	// Rounds 发生过变化的轮数，不含最后确认收敛的一轮
	Rounds int
	// Passes 实际执行的轮数
	Passes int
	// Tables 收敛后各节点路由表（网络顺序）
	Tables []*RouteTable
}

// Table 按节点 ID 查找收敛后的路由表
func (r *Result) Table(nodeID string) (*RouteTable, bool) {
	for _, t := range r.Tables {
		if t.SourceNode() == nodeID {
			return t, true
		}
	}
	return nil, false
}

// Driver 同步轮次驱动器
type Driver struct {
	net       *Network
	source    TableSource
	mode      Mode
	reporter  Reporter
	metrics   *Metrics
	logger    logrus.FieldLogger
	maxRounds int
}

// DriverOption 驱动器选项
type DriverOption func(*Driver)

func WithMode(mode Mode) DriverOption {
	return func(d *Driver) { d.mode = mode }
}

// WithSource 替换邻居距离向量来源，默认直接读取网络
func WithSource(src TableSource) DriverOption {
	return func(d *Driver) { d.source = src }
}

func WithReporter(r Reporter) DriverOption {
	return func(d *Driver) { d.reporter = r }
}

func WithMetrics(m *Metrics) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

func WithLogger(logger logrus.FieldLogger) DriverOption {
	return func(d *Driver) { d.logger = logger }
}

// WithMaxRounds 限制最多执行的轮数，0 表示不限制
func WithMaxRounds(n int) DriverOption {
	return func(d *Driver) { d.maxRounds = n }
}

// NewDriver 创建驱动器
func NewDriver(net *Network, opts ...DriverOption) *Driver {
	d := &Driver{
		net:      net,
		mode:     ModeGaussSeidel,
		reporter: NopReporter{},
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.source == nil {
		d.source = NewLocalSource(net)
	}
	return d
}

// Run 执行同步轮次直到没有任何路由表变化
// 邻居不在网络中时返回 ErrUnknownNeighbor，此时不会调用 Reporter.Converged
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID: uuid.NewString(),
		Mode:  d.mode,
	}
	logger := d.logger.WithFields(logrus.Fields{
		"run_id": res.RunID,
		"mode":   d.mode.String(),
	})
	d.metrics.gauge(keyNetworkNodes, float32(d.net.Len()))
	logger.Infof("Starting simulation with %d nodes", d.net.Len())

	// 空网络无需任何轮次
	for pass := 1; d.net.Len() > 0; pass++ {
		if d.maxRounds > 0 && pass > d.maxRounds {
			return nil, fmt.Errorf("%w after %d rounds", ErrNotConverged, d.maxRounds)
		}

		start := time.Now()
		changed, updates, err := d.runRound(ctx)
		if err != nil {
			logger.WithField("round", pass).WithError(err).Error("Round aborted")
			return nil, err
		}
		d.metrics.incr(keyRounds, 1)
		d.metrics.since(keyRoundDuration, start)

		res.Passes = pass
		if changed {
			res.Rounds++
		}
		logger.WithFields(logrus.Fields{
			"round":   pass,
			"changed": changed,
			"updates": updates,
		}).Debug("Round finished")

		d.reporter.RoundCompleted(RoundReport{
			RunID:   res.RunID,
			Round:   pass,
			Changed: changed,
			Updates: updates,
			Tables:  d.net.Tables(),
		})
		if !changed {
			break
		}
	}

	res.Tables = d.net.Tables()
	logger.Infof("Converged after %d rounds (%d passes)", res.Rounds, res.Passes)
	d.reporter.Converged(res)
	return res, nil
}

// runRound 按网络顺序处理每个节点，每个节点按邻居字典序拉取距离向量并松弛
func (d *Driver) runRound(ctx context.Context) (bool, int, error) {
	src := d.source
	if d.mode == ModeJacobi {
		snap, err := newSnapshotSource(ctx, d.source, d.net.IDs())
		if err != nil {
			return false, 0, err
		}
		src = snap
	}

	changed := false
	updates := 0
	for _, node := range d.net.nodes {
		for _, neighborID := range node.neighborOrder {
			if err := ctx.Err(); err != nil {
				return false, 0, err
			}

			vector, err := src.FetchVector(ctx, neighborID)
			if err != nil {
				if errors.Is(err, ErrNodeNotFound) {
					return false, 0, fmt.Errorf("%w: node %s references %s", ErrUnknownNeighbor, node.ID(), neighborID)
				}
				return false, 0, fmt.Errorf("fetch vector of %s for %s: %w", neighborID, node.ID(), err)
			}

			d.metrics.incr(keyRelaxCalls, 1)
			if node.Relax(vector, neighborID) {
				changed = true
				updates++
				d.metrics.incr(keyRelaxUpdates, 1)
			}
		}
	}
	return changed, updates, nil
}
