package saleshist

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates historical sales quantities from sales order lines.
// It is a read-only collaborator; nothing here mutates sales data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MonthlyQuantities returns calendar-month demand buckets for the item between
// from and to (inclusive). Months without sales are absent from the result.
func (r *Repository) MonthlyQuantities(ctx context.Context, orgID, itemID int64, from, to time.Time) ([]MonthlyDemand, error) {
	rows, err := r.pool.Query(ctx, `SELECT to_char(date_trunc('month', so.order_date), 'YYYY-MM') AS period, COALESCE(SUM(sol.qty), 0)
FROM sales_order_lines sol
JOIN sales_orders so ON so.id = sol.order_id
WHERE so.org_id=$1 AND sol.item_id=$2
  AND so.status NOT IN ('DRAFT','CANCELLED')
  AND so.order_date >= $3 AND so.order_date <= $4
GROUP BY 1
ORDER BY 1 ASC`, orgID, itemID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	buckets := []MonthlyDemand{}
	for rows.Next() {
		var b MonthlyDemand
		if err := rows.Scan(&b.Period, &b.Qty); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// AverageDailyDemand returns mean daily sales quantity over the trailing
// window of the given length, ending now. Zero when no sales occurred.
func (r *Repository) AverageDailyDemand(ctx context.Context, orgID, itemID int64, days int) (float64, error) {
	if days <= 0 {
		days = 30
	}
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(sol.qty), 0)
FROM sales_order_lines sol
JOIN sales_orders so ON so.id = sol.order_id
WHERE so.org_id=$1 AND sol.item_id=$2
  AND so.status NOT IN ('DRAFT','CANCELLED')
  AND so.order_date >= NOW() - make_interval(days => $3)`, orgID, itemID, days).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total / float64(days), nil
}
