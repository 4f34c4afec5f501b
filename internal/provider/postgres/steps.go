package postgres

import (
	"fmt"
	"strings"

	"github.com/groundwork-sh/groundwork/internal/domain/provision"
)

// RoleStep creates the application's login role.
type RoleStep struct {
	role     string
	password string
	id       provision.StepID
	deps     []provision.StepID
	db       Querier
}

// NewRoleStep creates a new RoleStep.
func NewRoleStep(role, password string, db Querier, deps []provision.StepID) *RoleStep {
	return &RoleStep{
		role:     role,
		password: password,
		id:       provision.MustNewStepID("postgres:role:" + role),
		deps:     deps,
		db:       db,
	}
}

// ID returns the step identifier.
func (s *RoleStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *RoleStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the role already exists.
func (s *RoleStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	exists, err := s.db.Exists(ctx.Context(), "SELECT 1 FROM pg_roles WHERE rolname = $1", s.role)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if exists {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *RoleStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "role", s.role, "", "login"), nil
}

// Apply creates the role. The role name is validated at parse time; DDL does
// not take placeholders, so the password is escaped by doubling quotes.
func (s *RoleStep) Apply(ctx provision.RunContext) error {
	stmt := fmt.Sprintf("CREATE ROLE %s LOGIN", s.role)
	if s.password != "" {
		stmt += fmt.Sprintf(" PASSWORD '%s'", strings.ReplaceAll(s.password, "'", "''"))
	}

	if err := s.db.Exec(ctx.Context(), stmt); err != nil {
		return provision.NewStepError(provision.ErrCodeDatabase, s.id,
			fmt.Sprintf("create role %s failed", s.role)).
			WithUnderlying(err).
			WithSuggestion("Check the admin DSN and that the server accepts connections.")
	}
	return nil
}

// Compensation describes how to undo the role creation.
func (s *RoleStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("DROP ROLE %s", s.role),
	}
}

// DatabaseStep creates the application database owned by the role.
type DatabaseStep struct {
	database string
	owner    string
	id       provision.StepID
	deps     []provision.StepID
	db       Querier
}

// NewDatabaseStep creates a new DatabaseStep.
func NewDatabaseStep(database, owner string, db Querier, deps []provision.StepID) *DatabaseStep {
	return &DatabaseStep{
		database: database,
		owner:    owner,
		id:       provision.MustNewStepID("postgres:database:" + database),
		deps:     deps,
		db:       db,
	}
}

// ID returns the step identifier.
func (s *DatabaseStep) ID() provision.StepID {
	return s.id
}

// DependsOn returns the step dependencies.
func (s *DatabaseStep) DependsOn() []provision.StepID {
	return s.deps
}

// Check determines if the database already exists.
func (s *DatabaseStep) Check(ctx provision.RunContext) (provision.StepStatus, error) {
	exists, err := s.db.Exists(ctx.Context(), "SELECT 1 FROM pg_database WHERE datname = $1", s.database)
	if err != nil {
		return provision.StatusUnknown, err
	}
	if exists {
		return provision.StatusSatisfied, nil
	}
	return provision.StatusNeedsApply, nil
}

// Plan returns the diff for this step.
func (s *DatabaseStep) Plan(_ provision.RunContext) (provision.Diff, error) {
	return provision.NewDiff(provision.DiffTypeAdd, "database", s.database, "", "owner "+s.owner), nil
}

// Apply creates the database.
func (s *DatabaseStep) Apply(ctx provision.RunContext) error {
	stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s", s.database, s.owner)
	if err := s.db.Exec(ctx.Context(), stmt); err != nil {
		return provision.NewStepError(provision.ErrCodeDatabase, s.id,
			fmt.Sprintf("create database %s failed", s.database)).
			WithUnderlying(err).
			WithSuggestion("Check the admin DSN and that the owner role exists.")
	}
	return nil
}

// Compensation describes how to undo the database creation.
func (s *DatabaseStep) Compensation() provision.Compensation {
	return provision.Compensation{
		StepID: s.id,
		Action: fmt.Sprintf("DROP DATABASE %s", s.database),
	}
}

// Steps with compensating actions.
var (
	_ provision.CompensableStep = (*RoleStep)(nil)
	_ provision.CompensableStep = (*DatabaseStep)(nil)
)
