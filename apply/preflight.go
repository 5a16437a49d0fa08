package apply

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"weldorm/dialect"
)

// WarningLevel tags how dangerous a detected operation is.
type WarningLevel string

const (
	WarnCaution WarningLevel = "CAUTION"
	WarnDanger  WarningLevel = "DANGER"
)

// Warning is one preflight finding against a single statement.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// PreflightResult is the aggregate outcome of analyzing a migration's
// statements before executing them.
type PreflightResult struct {
	Warnings        []Warning
	IsTransactional bool
	NonTxReasons    []string
}

// HasDestructiveOperations reports whether any warning in r is WarnDanger.
func HasDestructiveOperations(r *PreflightResult) bool {
	for _, w := range r.Warnings {
		if w.Level == WarnDanger {
			return true
		}
	}
	return false
}

// statementAnalysis is one statement's analysis result.
type statementAnalysis struct {
	isBlocking        bool
	blockingReasons   []string
	isDestructive     bool
	destructiveReason string
}

// analyzer parses SQL statements with TiDB's AST parser to flag destructive
// and blocking DDL before it runs against a real database.
type analyzer struct {
	parser *parser.Parser
	dialect dialect.Dialect
}

func newAnalyzer(d dialect.Dialect) *analyzer {
	return &analyzer{parser: parser.New(), dialect: d}
}

// AnalyzeStatements runs preflight analysis over a migration's rendered
// statements, flagging destructive DDL and recording whether the whole batch
// can safely run inside one transaction on this dialect.
func (a *analyzer) AnalyzeStatements(statements []string, unsafeAllowed bool) *PreflightResult {
	result := &PreflightResult{IsTransactional: a.dialect.SupportsTransactionalDDL()}

	for _, stmt := range statements {
		analysis := a.analyzeStatement(stmt)

		for _, reason := range analysis.blockingReasons {
			result.Warnings = append(result.Warnings, Warning{
				Level:   WarnCaution,
				Message: fmt.Sprintf("potentially blocking DDL: %s", reason),
				SQL:     truncateSQL(stmt),
			})
		}

		if analysis.isDestructive {
			msg := analysis.destructiveReason
			if !unsafeAllowed {
				msg = fmt.Sprintf("%s (requires explicit confirmation)", msg)
			}
			result.Warnings = append(result.Warnings, Warning{Level: WarnDanger, Message: msg, SQL: truncateSQL(stmt)})
		}
	}

	if !result.IsTransactional {
		result.NonTxReasons = append(result.NonTxReasons,
			fmt.Sprintf("%s DDL causes an implicit commit and cannot be rolled back", a.dialect.Type()))
	}

	return result
}

func (a *analyzer) analyzeStatement(sql string) *statementAnalysis {
	stmtNodes, _, err := a.parser.Parse(sql, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return a.fallbackAnalysis(sql)
	}
	return a.analyzeNode(stmtNodes[0])
}

func (a *analyzer) analyzeNode(node ast.StmtNode) *statementAnalysis {
	analysis := &statementAnalysis{}

	switch stmt := node.(type) {
	case *ast.DropTableStmt:
		analysis.isDestructive = true
		analysis.destructiveReason = "DROP TABLE permanently deletes the table and all its data"

	case *ast.CreateIndexStmt:
		analysis.isBlocking = true
		analysis.blockingReasons = append(analysis.blockingReasons, "CREATE INDEX may lock the table for the duration of index creation")

	case *ast.DropIndexStmt:
		analysis.isBlocking = true
		analysis.blockingReasons = append(analysis.blockingReasons, "DROP INDEX may briefly lock the table")

	case *ast.AlterTableStmt:
		a.analyzeAlterTable(stmt, analysis)

	case *ast.DeleteStmt:
		analysis.isDestructive = true
		analysis.destructiveReason = "DELETE removes rows from the table"
	}

	return analysis
}

func (a *analyzer) analyzeAlterTable(stmt *ast.AlterTableStmt, analysis *statementAnalysis) {
	for _, spec := range stmt.Specs {
		switch spec.Tp {
		case ast.AlterTableAddColumns:
			analysis.isBlocking = true
			analysis.blockingReasons = append(analysis.blockingReasons, "ADD COLUMN may require a table rebuild depending on engine and column position")

		case ast.AlterTableDropColumn:
			analysis.isBlocking = true
			analysis.isDestructive = true
			analysis.destructiveReason = "DROP COLUMN permanently deletes the column and its data"
			analysis.blockingReasons = append(analysis.blockingReasons, "DROP COLUMN typically requires a full table rebuild")

		case ast.AlterTableAddConstraint:
			analysis.isBlocking = true
			if spec.Constraint != nil && spec.Constraint.Tp == ast.ConstraintForeignKey {
				analysis.blockingReasons = append(analysis.blockingReasons, "ADD FOREIGN KEY may lock the table while validating existing rows")
			} else {
				analysis.blockingReasons = append(analysis.blockingReasons, "ADD CONSTRAINT may lock the table while validating existing rows")
			}

		case ast.AlterTableDropForeignKey:
			analysis.isBlocking = true
			analysis.blockingReasons = append(analysis.blockingReasons, "DROP FOREIGN KEY may briefly lock the table")
		}
	}
}

func (a *analyzer) fallbackAnalysis(sql string) *statementAnalysis {
	analysis := &statementAnalysis{}
	upper := strings.ToUpper(strings.TrimSpace(sql))

	switch {
	case strings.HasPrefix(upper, "DROP TABLE"):
		analysis.isDestructive = true
		analysis.destructiveReason = "DROP TABLE permanently deletes the table and all its data"
	case strings.Contains(upper, "DROP COLUMN"):
		analysis.isDestructive = true
		analysis.destructiveReason = "DROP COLUMN permanently deletes the column and its data"
	case strings.HasPrefix(upper, "DELETE FROM"):
		analysis.isDestructive = true
		analysis.destructiveReason = "DELETE removes rows from the table"
	}

	return analysis
}

func truncateSQL(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	const maxLen = 80
	if len(stmt) > maxLen {
		return stmt[:maxLen-3] + "..."
	}
	return stmt
}
