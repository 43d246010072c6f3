package route

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// RoundReport 每轮结束后对外暴露的快照
type RoundReport struct {
	RunID   string
	Round   int  // 第几轮（从 1 开始，包含最后确认收敛的一轮）
	Changed bool // 本轮是否有路由表发生变化
	Updates int  // 返回 true 的 Relax 调用次数
	Tables  []*RouteTable
}

// Reporter 输出路由表，只做展示，不得影响算法状态
type Reporter interface {
	RoundCompleted(report RoundReport)
	Converged(result *Result)
}

// NopReporter 不输出任何内容
type NopReporter struct{}

func (NopReporter) RoundCompleted(RoundReport) {}
func (NopReporter) Converged(*Result)          {}

// TextReporter 以文本形式写出路由表
type TextReporter struct {
	w io.Writer
	// Final 为 true 时只输出收敛后的结果
	Final bool
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) RoundCompleted(report RoundReport) {
	if r.Final {
		return
	}
	fmt.Fprintf(r.w, "\nIteration %d\n", report.Round)
	for _, table := range report.Tables {
		writeTable(r.w, table)
	}
}

func (r *TextReporter) Converged(result *Result) {
	fmt.Fprintf(r.w, "Converged after %d rounds (%d passes, mode=%s)\n", result.Rounds, result.Passes, result.Mode)
	if !r.Final {
		return
	}
	for _, table := range result.Tables {
		writeTable(r.w, table)
	}
}

func writeTable(w io.Writer, table *RouteTable) {
	fmt.Fprintf(w, "Routing Table for Node %s:\n", table.SourceNode())
	routes := table.GetAllRoutes()
	for _, dest := range sortedKeys(routes) {
		route := routes[dest]
		fmt.Fprintf(w, "  Destination %s -> Distance %s (via %s)\n", dest, FormatCost(route.Cost), route.NextHop)
	}
	fmt.Fprintln(w)
}

// LogReporter 将每轮结果写入日志
type LogReporter struct {
	logger logrus.FieldLogger
}

func NewLogReporter(logger logrus.FieldLogger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) RoundCompleted(report RoundReport) {
	entry := r.logger.WithFields(logrus.Fields{
		"run_id":  report.RunID,
		"round":   report.Round,
		"changed": report.Changed,
		"updates": report.Updates,
	})
	entry.Info("Round completed")
	for _, table := range report.Tables {
		entry.WithField("node", table.SourceNode()).Debugf("\n%s", table.String())
	}
}

func (r *LogReporter) Converged(result *Result) {
	r.logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"rounds": result.Rounds,
		"passes": result.Passes,
		"mode":   result.Mode.String(),
	}).Info("Simulation converged")
}

// multiReporter 依次转发给多个 Reporter
type multiReporter []Reporter

func (m multiReporter) RoundCompleted(report RoundReport) {
	for _, r := range m {
		r.RoundCompleted(report)
	}
}

func (m multiReporter) Converged(result *Result) {
	for _, r := range m {
		r.Converged(result)
	}
}

// MultiReporter 组合多个 Reporter
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}
