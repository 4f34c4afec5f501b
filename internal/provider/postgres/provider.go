package postgres

import (
	"context"
	"database/sql"
	"errors"

	// Registers the pgx stdlib driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
	"github.com/groundwork-sh/groundwork/internal/provider/precheck"
)

// Querier is the narrow database surface the steps need. Production code
// wraps *sql.DB over the pgx stdlib driver; tests substitute a fake.
type Querier interface {
	// Exists runs an existence query ("SELECT 1 FROM ... WHERE ...") and
	// reports whether a row came back.
	Exists(ctx context.Context, query string, args ...any) (bool, error)

	// Exec runs a DDL statement.
	Exec(ctx context.Context, stmt string) error
}

// sqlQuerier adapts *sql.DB to Querier.
type sqlQuerier struct {
	db *sql.DB
}

func (q *sqlQuerier) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *sqlQuerier) Exec(ctx context.Context, stmt string) error {
	_, err := q.db.ExecContext(ctx, stmt)
	return err
}

// Provider compiles postgres configuration into executable steps.
type Provider struct {
	// open defaults to sql.Open via pgx; tests substitute a fake Querier.
	open func(dsn string) (Querier, error)
}

// NewProvider creates a new postgres Provider.
func NewProvider() *Provider {
	return &Provider{
		open: func(dsn string) (Querier, error) {
			// sql.Open validates the DSN lazily; no connection is made until
			// the first step touches the server.
			db, err := sql.Open("pgx", dsn)
			if err != nil {
				return nil, err
			}
			return &sqlQuerier{db: db}, nil
		},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "postgres"
}

// Compile transforms postgres configuration into executable steps.
func (p *Provider) Compile(ctx provision.CompileContext) ([]provision.Step, error) {
	rawConfig := ctx.GetSection("postgres")
	if rawConfig == nil {
		return nil, nil
	}

	cfg, err := ParseConfig(rawConfig)
	if err != nil {
		return nil, err
	}

	db, err := p.open(cfg.DSN)
	if err != nil {
		return nil, err
	}

	deps := []provision.StepID{precheck.PrivilegeStepID}
	role := NewRoleStep(cfg.Owner, cfg.Password, db, deps)

	return []provision.Step{
		role,
		NewDatabaseStep(cfg.Database, cfg.Owner, db, append(deps, role.ID())),
	}, nil
}

// Ensure Provider implements provision.Provider.
var _ provision.Provider = (*Provider)(nil)
