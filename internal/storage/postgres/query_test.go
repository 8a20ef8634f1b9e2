package postgres

import (
	"strings"
	"testing"

	"github.com/sabawaheed27/motofix-europe/internal/domain"
)

func TestListShopsQuery_Placeholders(t *testing.T) {
	q, args := listShopsQuery(domain.ShopQuery{Country: "ger_many", CreatedBy: "u1", OrderBy: domain.OrderNewestFirst})
	if !strings.Contains(q, "country ILIKE $1 AND created_by::text = $2") {
		t.Fatalf("unexpected where: %s", q)
	}
	if !strings.HasSuffix(q, "ORDER BY created_at DESC, id DESC") {
		t.Fatalf("unexpected order: %s", q)
	}
	if len(args) != 2 || args[0] != `%ger\_many%` || args[1] != "u1" {
		t.Fatalf("unexpected args: %v", args)
	}

	q, args = listShopsQuery(domain.ShopQuery{})
	if strings.Contains(q, "WHERE") || len(args) != 0 {
		t.Fatalf("blank query must not filter: %s %v", q, args)
	}
}
