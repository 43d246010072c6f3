package route

import (
	"strings"
	"time"

	"github.com/hashicorp/go-metrics"
)

const metricsService = "dvnet"

var (
	keyRounds        = []string{"rounds"}
	keyRelaxCalls    = []string{"relax", "calls"}
	keyRelaxUpdates  = []string{"relax", "updates"}
	keyNetworkNodes  = []string{"network", "nodes"}
	keyRoundDuration = []string{"round", "duration"}
)

// Metrics 模拟过程的计数器，底层为内存 sink
// nil *Metrics 上的方法都是空操作
type Metrics struct {
	m    *metrics.Metrics
	sink *metrics.InmemSink
}

// NewMetrics 创建内存指标收集器
func NewMetrics() (*Metrics, error) {
	sink := metrics.NewInmemSink(10*time.Second, time.Minute)

	conf := metrics.DefaultConfig(metricsService)
	conf.EnableHostname = false
	conf.EnableHostnameLabel = false
	conf.EnableRuntimeMetrics = false
	conf.EnableTypePrefix = false

	m, err := metrics.New(conf, sink)
	if err != nil {
		return nil, err
	}
	return &Metrics{m: m, sink: sink}, nil
}

func (mt *Metrics) incr(key []string, val float32) {
	if mt == nil {
		return
	}
	mt.m.IncrCounter(key, val)
}

func (mt *Metrics) gauge(key []string, val float32) {
	if mt == nil {
		return
	}
	mt.m.SetGauge(key, val)
}

func (mt *Metrics) since(key []string, start time.Time) {
	if mt == nil {
		return
	}
	mt.m.MeasureSince(key, start)
}

// Counter 返回计数器在保留窗口内的累计值，如 Counter("relax", "calls")
func (mt *Metrics) Counter(key ...string) float64 {
	if mt == nil {
		return 0
	}
	name := flatten(append([]string{metricsService}, key...))

	var total float64
	for _, iv := range mt.sink.Data() {
		iv.RLock()
		if c, ok := iv.Counters[name]; ok && c.AggregateSample != nil {
			total += c.Sum
		}
		iv.RUnlock()
	}
	return total
}

// Gauge 返回最近一次设置的仪表值
func (mt *Metrics) Gauge(key ...string) (float32, bool) {
	if mt == nil {
		return 0, false
	}
	name := flatten(append([]string{metricsService}, key...))

	data := mt.sink.Data()
	for i := len(data) - 1; i >= 0; i-- {
		iv := data[i]
		iv.RLock()
		g, ok := iv.Gauges[name]
		iv.RUnlock()
		if ok {
			return g.Value, true
		}
	}
	return 0, false
}

func flatten(parts []string) string {
	return strings.Join(parts, ".")
}
