package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standinlabs/standin/internal/schema"
)

// account is the identity-keyed test entity.
type account struct {
	ID      int64
	Name    string
	Balance int64
	Tags    []string
}

func accountSchema(t *testing.T) *schema.Schema[account] {
	t.Helper()
	s, err := schema.New[account]("account", []schema.Field[account]{
		{
			Name: "id",
			Get:  func(a *account) any { return a.ID },
			Set:  func(a *account, v any) { a.ID = v.(int64) },
		},
		{
			Name: "name",
			Get:  func(a *account) any { return a.Name },
			Set:  func(a *account, v any) { a.Name = v.(string) },
		},
		{
			Name: "balance",
			Get:  func(a *account) any { return a.Balance },
			Set:  func(a *account, v any) { a.Balance = v.(int64) },
		},
		{
			Name: "tags",
			Get:  func(a *account) any { return a.Tags },
			Set:  func(a *account, v any) { a.Tags = v.([]string) },
			Clone: func(v any) any {
				tags := v.([]string)
				out := make([]string, len(tags))
				copy(out, tags)
				return out
			},
		},
	}, []string{"id"}, schema.WithIdentity[account]())
	require.NoError(t, err)
	return s
}

// orderLine is the composite-keyed test entity.
type orderLine struct {
	OrderID string
	LineNo  int
	SKU     string
	Qty     int
}

func orderLineSchema(t *testing.T) *schema.Schema[orderLine] {
	t.Helper()
	s, err := schema.New[orderLine]("order_line", []schema.Field[orderLine]{
		{
			Name: "order_id",
			Get:  func(l *orderLine) any { return l.OrderID },
			Set:  func(l *orderLine, v any) { l.OrderID = v.(string) },
		},
		{
			Name: "line_no",
			Get:  func(l *orderLine) any { return l.LineNo },
			Set:  func(l *orderLine, v any) { l.LineNo = v.(int) },
		},
		{
			Name: "sku",
			Get:  func(l *orderLine) any { return l.SKU },
			Set:  func(l *orderLine, v any) { l.SKU = v.(string) },
		},
		{
			Name: "qty",
			Get:  func(l *orderLine) any { return l.Qty },
			Set:  func(l *orderLine, v any) { l.Qty = v.(int) },
		},
	}, []string{"order_id", "line_no"})
	require.NoError(t, err)
	return s
}

func newAccountStore(t *testing.T, opts ...Option[account]) *Store[account] {
	t.Helper()
	st, err := New(accountSchema(t), opts...)
	require.NoError(t, err)
	return st
}

func newOrderLineStore(t *testing.T, opts ...Option[orderLine]) *Store[orderLine] {
	t.Helper()
	st, err := New(orderLineSchema(t), opts...)
	require.NoError(t, err)
	return st
}
