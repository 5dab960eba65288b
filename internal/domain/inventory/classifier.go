package inventory

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// StockStatus is a display classification of materialized stock.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// Default classification rules. Variables: stock, threshold (both int).
const (
	DefaultOutOfStockRule = "stock <= 0"
	DefaultLowStockRule   = "stock <= threshold"
)

// ClassifierConfig holds the CEL expressions used to classify stock.
// Rules are evaluated in order: out of stock, then low stock.
type ClassifierConfig struct {
	OutOfStockRule string
	LowStockRule   string
}

// DefaultClassifierConfig returns the stock rules: out at zero, low at or below threshold.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		OutOfStockRule: DefaultOutOfStockRule,
		LowStockRule:   DefaultLowStockRule,
	}
}

// Classifier maps (stock, threshold) to a StockStatus.
type Classifier struct {
	outOfStock cel.Program
	lowStock   cel.Program
}

// NewClassifier compiles cfg. Empty rules fall back to the defaults.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.OutOfStockRule == "" {
		cfg.OutOfStockRule = DefaultOutOfStockRule
	}
	if cfg.LowStockRule == "" {
		cfg.LowStockRule = DefaultLowStockRule
	}

	env, err := cel.NewEnv(
		cel.Variable("stock", cel.IntType),
		cel.Variable("threshold", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule env: %w", err)
	}

	out, err := compileRule(env, cfg.OutOfStockRule)
	if err != nil {
		return nil, fmt.Errorf("out of stock rule: %w", err)
	}
	low, err := compileRule(env, cfg.LowStockRule)
	if err != nil {
		return nil, fmt.Errorf("low stock rule: %w", err)
	}

	return &Classifier{outOfStock: out, lowStock: low}, nil
}

// MustDefaultClassifier returns the classifier for the built-in rules.
func MustDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultClassifierConfig())
	if err != nil {
		panic(err)
	}
	return c
}

func compileRule(env *cel.Env, expr string) (cel.Program, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	return env.Program(ast)
}

// Classify returns the status for the given stock and threshold.
func (c *Classifier) Classify(stock, threshold int64) (StockStatus, error) {
	vars := map[string]any{"stock": stock, "threshold": threshold}

	out, err := evalBool(c.outOfStock, vars)
	if err != nil {
		return "", err
	}
	if out {
		return StatusOutOfStock, nil
	}

	low, err := evalBool(c.lowStock, vars)
	if err != nil {
		return "", err
	}
	if low {
		return StatusLowStock, nil
	}
	return StatusInStock, nil
}

func evalBool(prg cel.Program, vars map[string]any) (bool, error) {
	val, _, err := prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate stock rule: %w", err)
	}
	b, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("stock rule returned %T", val.Value())
	}
	return b, nil
}
