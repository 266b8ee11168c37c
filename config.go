package icydb

import "time"

// Config aggregates every tunable of the query subsystem, in the teacher's
// nested-struct style (see Lychee's Config/DatabaseConfig/QueryConfig).
// Fields carry json tags so Config can round-trip through process
// configuration files the same way.
type Config struct {
	Planner  PlannerConfig  `json:"planner"`
	Cursor   CursorConfig   `json:"cursor"`
	Query    QueryConfig    `json:"query"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// PlannerConfig bounds index shape and plan search the planner will accept.
type PlannerConfig struct {
	// MaxIndexFields is F_max: the maximum number of fields composing a
	// single declared index.
	MaxIndexFields int `json:"max_index_fields"`
	// MaxInOperands is K_max, the configured cap on the operands of a
	// FieldPredicate with OpIn. The planner and executor do not read it; IN
	// lists of any length are planned.
	MaxInOperands int `json:"max_in_operands"`
}

// CursorConfig bounds the continuation token wire format.
type CursorConfig struct {
	// MaxTokenBytes is T_max: the maximum encoded size of a continuation
	// token, including its signature.
	MaxTokenBytes int `json:"max_token_bytes"`
	// SignatureSecret seeds the 32-byte continuation signature HMAC; a
	// process restart with a different secret invalidates all outstanding
	// cursors, which is the intended "stale anchor" failure mode.
	SignatureSecret []byte `json:"-"`
}

// QueryConfig bounds page sizing for execute_paged.
type QueryConfig struct {
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
	// ScanBudget caps the number of keys a single execute* call may touch.
	// When the cap is reached the scan stops, the rows gathered so far are
	// returned, and the call's metrics report BudgetExceeded; no error is
	// returned.
	ScanBudget int `json:"scan_budget"`
	// DefaultMissingRowPolicy is the MissingRowPolicy a QueryBuilder starts
	// with absent an explicit override.
	DefaultMissingRowPolicy MissingRowPolicy `json:"default_missing_row_policy"`
}

// LoggingConfig mirrors the teacher's LoggingConfig: a level string and a
// development flag. Nothing in this package reads it; the package logs
// through zap's global logger.
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// MetricsConfig holds metrics settings. Nothing in this package reads it;
// the executor always reports its per-call metrics in the Response.
type MetricsConfig struct {
	Enabled         bool          `json:"enabled"`
	FlushInterval   time.Duration `json:"flush_interval"`
}

// DefaultConfig returns the spec's numeric constants as overridable
// defaults, exactly as the teacher's DefaultConfig() seeds MaxPageSize
// etc.
func DefaultConfig() Config {
	return Config{
		Planner: PlannerConfig{
			MaxIndexFields: MaxIndexFields,
			MaxInOperands:  1024,
		},
		Cursor: CursorConfig{
			MaxTokenBytes: 8 * 1024,
		},
		Query: QueryConfig{
			DefaultPageSize: 50,
			MaxPageSize:     1000,
			ScanBudget:      100_000,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			FlushInterval: 10 * time.Second,
		},
	}
}
