package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unclebob/internal/domain"
)

const failingOutput = `..FE
======================================================================
ERROR: test_creates_order (shop.tests.integration.test_orders.OrderTest)
----------------------------------------------------------------------
Traceback (most recent call last):
  File "/project/shop/tests/integration/test_orders.py", line 21, in test_creates_order
    order = Order.objects.create()
  File "/project/shop/models.py", line 8, in create
    raise ValueError("no customer")
ValueError: no customer

======================================================================
FAIL: shop.tests.unit.test_prices.test_rounds_half_up
----------------------------------------------------------------------
Traceback (most recent call last):
  File "/project/shop/tests/unit/test_prices.py", line 5, in test_rounds_half_up
    assert round_price(1.005) == 1.01
AssertionError

----------------------------------------------------------------------
Ran 4 tests in 0.031s

FAILED (failures=1, errors=1)
`

const passingOutput = `....
----------------------------------------------------------------------
Ran 4 tests in 0.002s

OK
`

func TestNoseParser_ParseCounts(t *testing.T) {
	p := NewNoseParser()

	tests := []struct {
		name   string
		result domain.ToolResult
		run    int
		failed int
	}{
		{name: "passing", result: domain.ToolResult{Passed: true, Output: passingOutput}, run: 4, failed: 0},
		{name: "failing", result: domain.ToolResult{Output: failingOutput}, run: 4, failed: 2},
		{name: "single test", result: domain.ToolResult{Passed: true, Output: "Ran 1 test in 0.001s\n\nOK\n"}, run: 1, failed: 0},
		{name: "unparseable pass", result: domain.ToolResult{Passed: true, Output: "garbage"}, run: 1, failed: 0},
		{name: "unparseable failure", result: domain.ToolResult{Output: "command not found"}, run: 1, failed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, failed := p.ParseCounts(tt.result)
			assert.Equal(t, tt.run, run)
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestNoseParser_ParseFailures(t *testing.T) {
	failures := NewNoseParser().ParseFailures(domain.ToolResult{Output: failingOutput})
	require.Len(t, failures, 2)

	errored := failures[0]
	assert.Equal(t, "ERROR", errored.Kind)
	assert.Equal(t, "test_creates_order", errored.TestName)
	assert.Equal(t, "shop.tests.integration.test_orders.OrderTest", errored.Location)
	assert.Equal(t, "ValueError: no customer", errored.Message)
	assert.Equal(t, "/project/shop/models.py", errored.File)
	assert.Equal(t, 8, errored.Line)
	assert.Len(t, errored.StackTrace, 6)

	failed := failures[1]
	assert.Equal(t, "FAIL", failed.Kind)
	assert.Equal(t, "shop.tests.unit.test_prices.test_rounds_half_up", failed.TestName)
	assert.Empty(t, failed.Location)
	assert.Equal(t, "AssertionError", failed.Message)
	assert.Equal(t, "/project/shop/tests/unit/test_prices.py", failed.File)
	assert.Equal(t, 5, failed.Line)
}

func TestNoseParser_ParseFailures_None(t *testing.T) {
	assert.Empty(t, NewNoseParser().ParseFailures(domain.ToolResult{Passed: true, Output: passingOutput}))
}
