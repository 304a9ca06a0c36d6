package toolexecutor

import "time"

// ExecutionStats aggregates stored execution history
type ExecutionStats struct {
	TotalExecutions  int               `json:"total_executions"`
	SuccessRate      float64           `json:"success_rate"`
	AvgExecutionTime time.Duration     `json:"avg_execution_time"`
	ErrorsByKind     map[ErrorKind]int `json:"errors_by_kind"`
}

// Statistics describes the catalog and the recorded executions
type Statistics struct {
	TotalTools     int                   `json:"total_tools"`
	Categories     map[ToolCategory]int  `json:"categories"`
	SecurityLevels map[SecurityLevel]int `json:"security_levels"`
	ExecutionStats ExecutionStats        `json:"execution_stats"`
	RateLimitKeys  int                   `json:"rate_limit_keys"`
}

// Statistics returns catalog counts and execution aggregates
func (e *Engine) Statistics() Statistics {
	categories, levels := e.catalog.countBy()
	summary := e.history.Summary()

	return Statistics{
		TotalTools:     e.catalog.Len(),
		Categories:     categories,
		SecurityLevels: levels,
		ExecutionStats: ExecutionStats{
			TotalExecutions:  summary.TotalExecutions,
			SuccessRate:      summary.SuccessRate,
			AvgExecutionTime: summary.AvgExecutionTime,
			ErrorsByKind:     summary.ErrorsByKind,
		},
		RateLimitKeys: e.limiter.Len(),
	}
}
