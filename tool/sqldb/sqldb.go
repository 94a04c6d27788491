// Package sqldb provides a tool that runs SQL queries produced by the model
// against a database handle and returns the rows as JSON.
package sqldb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
)

const (
	// DefaultName is the tool name shown to the model.
	DefaultName = "query-sql"

	defaultDescription = "Input to this tool is a detailed and correct SQL query, output is a result from the database."
)

// Options configures the SQL tool.
type Options struct {
	Name        string
	Description string
	// Tables, when set, are appended to the description so the model knows
	// what it can query.
	Tables []string
	// TopK caps the number of returned rows (<= 0 means no cap).
	TopK int
	// ReadOnly rejects statements other than SELECT / WITH / EXPLAIN.
	ReadOnly bool
	// ReturnDirect makes the query result the final answer.
	ReturnDirect bool
	Logger       logging.Logger
}

// Tool runs SQL queries.
type Tool struct {
	db   *sqlx.DB
	opts Options
}

var _ tool.Tool = (*Tool)(nil)

// Open connects to a database using a registered driver ("sqlite" is
// always available).
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

// New creates a SQL tool backed by db.
func New(db *sqlx.DB, optFns ...func(o *Options)) *Tool {
	opts := Options{
		Name:        DefaultName,
		Description: defaultDescription,
		TopK:        10,
		ReadOnly:    true,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Tool{db: db, opts: opts}
}

// Name implements tool.Tool.
func (t *Tool) Name() string { return t.opts.Name }

// Description implements tool.Tool.
func (t *Tool) Description() string {
	if len(t.opts.Tables) == 0 {
		return t.opts.Description
	}
	return fmt.Sprintf("%s Available tables: %s.", t.opts.Description, strings.Join(t.opts.Tables, ", "))
}

// ReturnDirect implements tool.Tool.
func (t *Tool) ReturnDirect() bool { return t.opts.ReturnDirect }

// Call implements tool.Tool.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(input), ";"))
	if query == "" {
		return "", fmt.Errorf("empty query")
	}

	if t.opts.ReadOnly && !isReadOnly(query) {
		return "", fmt.Errorf("only read-only queries are allowed: %q", query)
	}

	t.opts.Logger.Debug("sql.query.start", "tool", t.opts.Name, "query", query)

	rows, err := t.db.QueryxContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	results := []map[string]any{}
	for rows.Next() {
		if t.opts.TopK > 0 && len(results) >= t.opts.TopK {
			break
		}

		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return "", fmt.Errorf("scan: %w", err)
		}

		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows: %w", err)
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}

	t.opts.Logger.Debug("sql.query.complete", "tool", t.opts.Name, "rows", len(results))

	return string(out), nil
}

func isReadOnly(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "EXPLAIN":
		return true
	default:
		return false
	}
}
