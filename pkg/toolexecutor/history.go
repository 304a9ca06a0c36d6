package toolexecutor

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultHistoryCap is the number of results kept per (user, tool)
const DefaultHistoryCap = 100

// HistorySummary aggregates every stored execution result
type HistorySummary struct {
	TotalExecutions  int               `json:"total_executions"`
	Successes        int               `json:"successes"`
	SuccessRate      float64           `json:"success_rate"`
	AvgExecutionTime time.Duration     `json:"avg_execution_time"`
	ErrorsByKind     map[ErrorKind]int `json:"errors_by_kind"`
}

type historyLog struct {
	mu      sync.Mutex
	entries []ExecutionResult
}

// History keeps a FIFO-bounded result log per (user, tool)
type History struct {
	mu       sync.Mutex // guards logs
	logs     *simplelru.LRU[rateKey, *historyLog]
	capacity int
}

// NewHistory creates a history keeping perKey results for at most maxKeys keys
func NewHistory(perKey, maxKeys int) *History {
	if perKey <= 0 {
		perKey = DefaultHistoryCap
	}
	if maxKeys <= 0 {
		maxKeys = DefaultRateLimitKeyCapacity
	}
	logs, err := simplelru.NewLRU[rateKey, *historyLog](maxKeys, nil)
	if err != nil {
		panic(err)
	}
	return &History{logs: logs, capacity: perKey}
}

func (h *History) log(key rateKey, create bool) *historyLog {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.logs.Get(key); ok {
		return l
	}
	if !create {
		return nil
	}
	l := &historyLog{}
	h.logs.Add(key, l)
	return l
}

// Record appends a result, evicting the oldest entries beyond the cap
func (h *History) Record(userID, toolName string, result ExecutionResult) {
	l := h.log(rateKey{userID: userID, toolName: toolName}, true)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, result)
	if overflow := len(l.entries) - h.capacity; overflow > 0 {
		l.entries = append(l.entries[:0], l.entries[overflow:]...)
	}
}

// Entries returns a copy of the stored results for (userID, toolName), oldest first
func (h *History) Entries(userID, toolName string) []ExecutionResult {
	l := h.log(rateKey{userID: userID, toolName: toolName}, false)
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]ExecutionResult(nil), l.entries...)
}

// Summary aggregates all stored history
func (h *History) Summary() HistorySummary {
	h.mu.Lock()
	logs := make([]*historyLog, 0, h.logs.Len())
	for _, key := range h.logs.Keys() {
		if l, ok := h.logs.Peek(key); ok {
			logs = append(logs, l)
		}
	}
	h.mu.Unlock()

	summary := HistorySummary{ErrorsByKind: make(map[ErrorKind]int)}
	var total time.Duration
	for _, l := range logs {
		l.mu.Lock()
		for _, entry := range l.entries {
			summary.TotalExecutions++
			total += entry.Duration
			if entry.Success {
				summary.Successes++
			} else {
				summary.ErrorsByKind[entry.ErrorKind]++
			}
		}
		l.mu.Unlock()
	}

	if summary.TotalExecutions > 0 {
		summary.SuccessRate = float64(summary.Successes) / float64(summary.TotalExecutions)
		summary.AvgExecutionTime = total / time.Duration(summary.TotalExecutions)
	}

	return summary
}
