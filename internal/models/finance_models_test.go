package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionIsOverdueAt(t *testing.T) {
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	pastDue := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		status string
		due    time.Time
		want   bool
	}{
		{"pending past due", TransactionPending, pastDue, true},
		{"pending due today", TransactionPending, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), false},
		{"pending due tomorrow", TransactionPending, time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC), false},
		{"paid past due", TransactionPaid, pastDue, false},
		{"cancelled past due", TransactionCancelled, pastDue, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := Transaction{Status: tc.status, DueDate: tc.due}
			assert.Equal(t, tc.want, tr.IsOverdueAt(now))
		})
	}
}

func TestIsValidCategoryKind(t *testing.T) {
	assert.True(t, IsValidCategoryKind(KindRevenue))
	assert.True(t, IsValidCategoryKind(KindExpense))
	for _, k := range []string{"", "entrada", "RECEITA"} {
		assert.False(t, IsValidCategoryKind(k), "kind %q", k)
	}
}
