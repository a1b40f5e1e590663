package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MetricsStore defines the read-only DB methods the aggregator needs.
// Satisfied by *database.Queries.
type MetricsStore interface {
	ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]database.Order, error)
	ListCompletedOrderItemsBetween(ctx context.Context, start, end time.Time) ([]database.CompletedOrderItemRow, error)
}

// DailySummary is the dashboard headline for one day.
type DailySummary struct {
	Date           time.Time
	Revenue        decimal.Decimal
	Orders         int
	CompletionRate int
	RevenueGrowth  float64
	OrdersGrowth   float64
}

// TopItem is one row of the top-selling-items report.
type TopItem struct {
	MenuItemID uuid.UUID
	Name       string
	UnitsSold  int64
	Revenue    decimal.Decimal
}

// HourlyBucket holds activity for a single hour of the day. Revenue
// counts Completed orders only; Orders counts every status.
type HourlyBucket struct {
	Hour    int
	Orders  int
	Revenue decimal.Decimal
}

// MetricsService derives dashboard and analytics figures. Every method
// is a pure function of the queried window; nothing is cached, so the
// figures are fully recomputable at any time.
type MetricsService struct {
	store MetricsStore
	loc   *time.Location
}

// NewMetricsService creates a MetricsService. A nil loc defaults to the
// server's local timezone.
func NewMetricsService(store MetricsStore, loc *time.Location) *MetricsService {
	if loc == nil {
		loc = time.Local
	}
	return &MetricsService{store: store, loc: loc}
}

// DailySummary computes revenue, order count, completion rate, and
// day-over-day growth for the given day.
func (m *MetricsService) DailySummary(ctx context.Context, day time.Time) (DailySummary, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, m.loc)

	todays, err := m.store.ListOrdersCreatedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return DailySummary{}, err
	}
	yesterdays, err := m.store.ListOrdersCreatedBetween(ctx, dayStart.AddDate(0, 0, -1), dayStart)
	if err != nil {
		return DailySummary{}, err
	}

	revenue, total, completed := SummarizeOrders(todays)
	prevRevenue, prevTotal, _ := SummarizeOrders(yesterdays)

	return DailySummary{
		Date:           dayStart,
		Revenue:        revenue,
		Orders:         total,
		CompletionRate: CompletionRate(completed, total),
		RevenueGrowth:  GrowthPercent(revenue, prevRevenue),
		OrdersGrowth:   GrowthPercent(decimal.NewFromInt(int64(total)), decimal.NewFromInt(int64(prevTotal))),
	}, nil
}

// WeeklySummary returns one DailySummary per day for the 7 days ending
// at endDay (inclusive), oldest first.
func (m *MetricsService) WeeklySummary(ctx context.Context, endDay time.Time) ([]DailySummary, error) {
	summaries := make([]DailySummary, 0, 7)
	for i := 6; i >= 0; i-- {
		s, err := m.DailySummary(ctx, endDay.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// TopSellingItems returns at most limit products ranked by units sold
// within [start, end). Only items on Completed orders count.
func (m *MetricsService) TopSellingItems(ctx context.Context, start, end time.Time, limit int) ([]TopItem, error) {
	rows, err := m.store.ListCompletedOrderItemsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return RankTopItems(rows, limit), nil
}

// HourlyPerformance buckets the day's orders by local hour of day in
// the inclusive range [startHour, endHour].
func (m *MetricsService) HourlyPerformance(ctx context.Context, day time.Time, startHour, endHour int) ([]HourlyBucket, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, m.loc)
	orders, err := m.store.ListOrdersCreatedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return BucketByHour(orders, startHour, endHour, m.loc), nil
}

// --- Pure aggregation functions ---

// SummarizeOrders scans a window of orders once: revenue sums
// total_amount over Completed orders only (a point-in-time snapshot of
// current status, not history); total counts every status.
func SummarizeOrders(orders []database.Order) (revenue decimal.Decimal, total, completed int) {
	revenue = decimal.Zero
	for _, o := range orders {
		total++
		if o.Status == database.OrderStatusCompleted {
			completed++
			revenue = revenue.Add(numericToDecimal(o.TotalAmount))
		}
	}
	return revenue, total, completed
}

// CompletionRate is completed/total*100 rounded to an integer, 0 for an
// empty window.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// GrowthPercent is ((today-yesterday)/yesterday)*100 rounded to one
// decimal, 0 when yesterday is zero.
func GrowthPercent(today, yesterday decimal.Decimal) float64 {
	if yesterday.IsZero() {
		return 0
	}
	growth := today.Sub(yesterday).Div(yesterday).Mul(decimal.NewFromInt(100))
	f, _ := growth.Round(1).Float64()
	return f
}

// RankTopItems groups completed order items by product, summing
// quantity into UnitsSold and quantity*price into Revenue. Sorted by
// UnitsSold descending, ties broken by product ID ascending so the
// ranking is deterministic. Returns an empty slice, never an error,
// when there is nothing to rank.
func RankTopItems(rows []database.CompletedOrderItemRow, limit int) []TopItem {
	byProduct := make(map[uuid.UUID]*TopItem)
	for _, r := range rows {
		item, ok := byProduct[r.MenuItemID]
		if !ok {
			item = &TopItem{MenuItemID: r.MenuItemID, Name: r.Name, Revenue: decimal.Zero}
			byProduct[r.MenuItemID] = item
		}
		item.UnitsSold += int64(r.Quantity)
		item.Revenue = item.Revenue.Add(numericToDecimal(r.UnitPrice).Mul(decimal.NewFromInt32(r.Quantity)))
	}

	ranked := make([]TopItem, 0, len(byProduct))
	for _, item := range byProduct {
		ranked = append(ranked, *item)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].UnitsSold != ranked[j].UnitsSold {
			return ranked[i].UnitsSold > ranked[j].UnitsSold
		}
		return ranked[i].MenuItemID.String() < ranked[j].MenuItemID.String()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// BucketByHour produces exactly endHour-startHour+1 buckets, zero-value
// buckets included. Orders outside the hour range are silently dropped.
func BucketByHour(orders []database.Order, startHour, endHour int, loc *time.Location) []HourlyBucket {
	if loc == nil {
		loc = time.Local
	}
	buckets := make([]HourlyBucket, endHour-startHour+1)
	for i := range buckets {
		buckets[i] = HourlyBucket{Hour: startHour + i, Revenue: decimal.Zero}
	}
	for _, o := range orders {
		hour := o.CreatedAt.In(loc).Hour()
		if hour < startHour || hour > endHour {
			continue
		}
		b := &buckets[hour-startHour]
		b.Orders++
		if o.Status == database.OrderStatusCompleted {
			b.Revenue = b.Revenue.Add(numericToDecimal(o.TotalAmount))
		}
	}
	return buckets
}

// ComputeCustomerStatus derives the profile's activity status. Last
// activity is the most recent order, or profile creation when the
// customer has never ordered. The explicit suspension flag is checked
// last so it always overrides the recency-derived value.
func ComputeCustomerStatus(isSuspended bool, createdAt time.Time, lastOrderAt *time.Time, now time.Time) string {
	lastActivity := createdAt
	if lastOrderAt != nil && lastOrderAt.After(lastActivity) {
		lastActivity = *lastOrderAt
	}

	var status string
	switch age := now.Sub(lastActivity); {
	case age <= 30*24*time.Hour:
		status = enum.CustomerStatusActive
	case age <= 90*24*time.Hour:
		status = enum.CustomerStatusInactive
	default:
		status = enum.CustomerStatusSuspended
	}

	if isSuspended {
		status = enum.CustomerStatusSuspended
	}
	return status
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
