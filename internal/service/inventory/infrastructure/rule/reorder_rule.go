// internal/service/inventory/infrastructure/rule/reorder_rule.go
package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"stocknexus/internal/service/inventory/domain"
)

// DefaultExpression 是标准补货判定：在途 + 在库 低于补货水位线
const DefaultExpression = "available + reserved <= reorder_level"

// CELReorderPolicy 是 domain.ReorderPolicy 的 CEL 实现。
// 补货判定做成可配置的表达式，运营可以按品类调整策略
// （比如只看 available，或给水位线加安全系数），不用改代码发版。
// 表达式在构造时编译一次，Evaluate 只做求值。
type CELReorderPolicy struct {
	expression string
	program    cel.Program
}

// NewCELReorderPolicy 编译补货规则表达式；expression 为空时用默认规则。
// 可用变量: available, reserved, reorder_level（都是 int）。
func NewCELReorderPolicy(expression string) (*CELReorderPolicy, error) {
	if expression == "" {
		expression = DefaultExpression
	}

	env, err := cel.NewEnv(
		cel.Variable("available", cel.IntType),
		cel.Variable("reserved", cel.IntType),
		cel.Variable("reorder_level", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid reorder rule %q: %w", expression, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("reorder rule %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build reorder rule program: %w", err)
	}

	return &CELReorderPolicy{expression: expression, program: program}, nil
}

// Evaluate 实现 domain.ReorderPolicy
func (p *CELReorderPolicy) Evaluate(record *domain.InventoryRecord) (bool, error) {
	out, _, err := p.program.Eval(map[string]interface{}{
		"available":     record.QuantityAvailable,
		"reserved":      record.QuantityReserved,
		"reorder_level": record.ReorderLevel,
	})
	if err != nil {
		return false, fmt.Errorf("reorder rule evaluation failed: %w", err)
	}
	needs, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("reorder rule returned non-bool value %v", out.Value())
	}
	return needs, nil
}

// Expression 返回当前生效的规则文本（运维接口展示用）
func (p *CELReorderPolicy) Expression() string {
	return p.expression
}
