//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package marts

import (
	"testing"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/pipeline/staging"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

// testCalendar maps date key N to a date in year 2017, month N.
func testCalendar(months ...int) map[int64]warehouse.CalendarDate {
	calendar := make(map[int64]warehouse.CalendarDate)
	for _, m := range months {
		calendar[int64(m)] = warehouse.CalendarDate{
			DateKey: int64(m),
			Year:    2017,
			Month:   m,
		}
	}
	return calendar
}

func monthLine(orderID string, customerKey int64, dateKey int64, price float64) staging.OrderRow {
	l := stagedLine(orderID, customerKey, 10, price, baseTime)
	l.DateKey = dateKey
	return l
}

func TestAggregateMonthsOrderingAndPrev(t *testing.T) {
	orders := []staging.OrderRow{
		monthLine("o3", 1, 3, 500),
		monthLine("o1", 1, 1, 1000),
		monthLine("o2", 2, 2, 1200),
	}

	months := AggregateMonths(orders, testCalendar(1, 2, 3), time.Now())
	if len(months) != 3 {
		t.Fatalf("Expected 3 months, got %d", len(months))
	}

	for i, want := range []int{1, 2, 3} {
		if months[i].Year != 2017 || months[i].Month != want {
			t.Fatalf("months[%d] = %d-%d, want 2017-%d",
				i, months[i].Year, months[i].Month, want)
		}
	}

	// First month in the sequence has no predecessor.
	if months[0].PrevMonthRevenue != nil || months[0].RevenueGrowthPct != nil {
		t.Errorf("First month should have undefined prev/growth")
	}

	// Every later month's prev equals the prior month's total exactly.
	for i := 1; i < len(months); i++ {
		if months[i].PrevMonthRevenue == nil {
			t.Fatalf("months[%d].PrevMonthRevenue undefined", i)
		}
		if *months[i].PrevMonthRevenue != months[i-1].TotalRevenue {
			t.Errorf("months[%d].PrevMonthRevenue = %v, want %v",
				i, *months[i].PrevMonthRevenue, months[i-1].TotalRevenue)
		}
	}

	// 1000 -> 1200 is 20.0 percent growth.
	if months[1].RevenueGrowthPct == nil || *months[1].RevenueGrowthPct != 20.0 {
		t.Errorf("RevenueGrowthPct = %v, want 20.0", months[1].RevenueGrowthPct)
	}
}

func TestAggregateMonthsGrowthAcrossGap(t *testing.T) {
	// Months 1 and 4: the predecessor is positional, not calendar-adjacent.
	orders := []staging.OrderRow{
		monthLine("o1", 1, 1, 1000),
		monthLine("o2", 1, 4, 1500),
	}

	months := AggregateMonths(orders, testCalendar(1, 4), time.Now())
	if len(months) != 2 {
		t.Fatalf("Expected 2 months, got %d", len(months))
	}
	if months[1].PrevMonthRevenue == nil || *months[1].PrevMonthRevenue != 1000 {
		t.Errorf("PrevMonthRevenue = %v, want 1000", months[1].PrevMonthRevenue)
	}
	if months[1].RevenueGrowthPct == nil || *months[1].RevenueGrowthPct != 50.0 {
		t.Errorf("RevenueGrowthPct = %v, want 50.0", months[1].RevenueGrowthPct)
	}
}

func TestAggregateMonthsCounts(t *testing.T) {
	orders := []staging.OrderRow{
		monthLine("o1", 1, 1, 100),
		monthLine("o1", 1, 1, 50),
		monthLine("o2", 2, 1, 30),
	}

	months := AggregateMonths(orders, testCalendar(1), time.Now())
	m := months[0]

	if m.TotalOrders != 2 {
		t.Errorf("TotalOrders = %d, want 2 (distinct orders)", m.TotalOrders)
	}
	if m.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", m.TotalItems)
	}
	if m.UniqueCustomers != 2 {
		t.Errorf("UniqueCustomers = %d, want 2", m.UniqueCustomers)
	}
	if m.TotalRevenue != 180 {
		t.Errorf("TotalRevenue = %v, want 180", m.TotalRevenue)
	}
	// Freight is 10 per line.
	if m.TotalRevenueWithFreight != 210 {
		t.Errorf("TotalRevenueWithFreight = %v, want 210", m.TotalRevenueWithFreight)
	}
	if m.AvgOrderValue != 105 {
		t.Errorf("AvgOrderValue = %v, want 105 (with-freight / orders)", m.AvgOrderValue)
	}
}

// Lines pointing at an unknown calendar key are excluded.
func TestAggregateMonthsUnknownDateKey(t *testing.T) {
	orders := []staging.OrderRow{
		monthLine("o1", 1, 1, 100),
		monthLine("o2", 1, 99, 500),
	}

	months := AggregateMonths(orders, testCalendar(1), time.Now())
	if len(months) != 1 {
		t.Fatalf("Expected 1 month, got %d", len(months))
	}
	if months[0].TotalRevenue != 100 {
		t.Errorf("TotalRevenue = %v, want 100", months[0].TotalRevenue)
	}
}

func TestAggregateMonthsEmpty(t *testing.T) {
	months := AggregateMonths(nil, testCalendar(1), time.Now())
	if len(months) != 0 {
		t.Errorf("Expected no months, got %d", len(months))
	}
}

func TestMonthlyRevenueStageMetadata(t *testing.T) {
	s := &MonthlyRevenueStage{}
	if s.Name() != MonthlyRevenueStageName {
		t.Errorf("Name = %s", s.Name())
	}
	inputs := s.Inputs()
	if len(inputs) != 1 || inputs[0] != staging.OrdersStageName {
		t.Errorf("Unexpected inputs: %v", inputs)
	}
	if s.Table() != "monthly_revenue" {
		t.Errorf("Table = %s", s.Table())
	}
}
