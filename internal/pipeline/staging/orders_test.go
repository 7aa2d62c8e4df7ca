//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package staging

import (
	"testing"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/derive"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

func allKeys() *warehouse.KeySets {
	return &warehouse.KeySets{
		Customers: map[int64]struct{}{1: {}, 2: {}},
		Products:  map[int64]struct{}{10: {}, 11: {}},
		Dates:     map[int64]struct{}{100: {}, 101: {}},
	}
}

func deliveredLine() warehouse.OrderLine {
	purchase := time.Date(2017, 5, 1, 10, 0, 0, 0, time.UTC)
	approved := purchase.Add(90 * time.Minute)
	delivered := purchase.AddDate(0, 0, 5)
	return warehouse.OrderLine{
		OrderLineKey:        1,
		OrderID:             "order-1",
		CustomerKey:         1,
		ProductKey:          10,
		DateKey:             100,
		OrderItemID:         1,
		Price:               100.0,
		FreightValue:        15.5,
		Status:              warehouse.OrderStatusDelivered,
		PurchasedAt:         purchase,
		ApprovedAt:          &approved,
		DeliveredAt:         &delivered,
		EstimatedDeliveryAt: purchase.AddDate(0, 0, 7),
	}
}

func TestTransformOrdersDerivations(t *testing.T) {
	processedAt := time.Now().UTC()
	staged, gaps := TransformOrders([]warehouse.OrderLine{deliveredLine()}, allKeys(), processedAt)

	if gaps != 0 {
		t.Errorf("Expected no referential gaps, got %d", gaps)
	}
	if len(staged) != 1 {
		t.Fatalf("Expected 1 staged row, got %d", len(staged))
	}

	row := staged[0]
	if row.TotalAmount != 115.5 {
		t.Errorf("TotalAmount = %v, want 115.5", row.TotalAmount)
	}
	if row.DeliveryDays == nil || *row.DeliveryDays != 5 {
		t.Errorf("DeliveryDays = %v, want 5", row.DeliveryDays)
	}
	if row.DeliveryStatus == nil || *row.DeliveryStatus != derive.DeliveryOnTime {
		t.Errorf("DeliveryStatus = %v, want OnTime", row.DeliveryStatus)
	}
	if row.ApprovalHours == nil || *row.ApprovalHours != 1.5 {
		t.Errorf("ApprovalHours = %v, want 1.5", row.ApprovalHours)
	}
	if !row.ProcessedAt.Equal(processedAt) {
		t.Errorf("ProcessedAt not stamped")
	}
}

func TestTransformOrdersFiltersStatus(t *testing.T) {
	line := deliveredLine()
	line.Status = "shipped"

	staged, _ := TransformOrders([]warehouse.OrderLine{line}, allKeys(), time.Now())
	if len(staged) != 0 {
		t.Errorf("Non-delivered line should be filtered, got %d rows", len(staged))
	}
}

func TestTransformOrdersExcludesReferentialGaps(t *testing.T) {
	good := deliveredLine()
	missingCustomer := deliveredLine()
	missingCustomer.OrderLineKey = 2
	missingCustomer.CustomerKey = 999

	staged, gaps := TransformOrders(
		[]warehouse.OrderLine{good, missingCustomer}, allKeys(), time.Now())

	if gaps != 1 {
		t.Errorf("Expected 1 referential gap, got %d", gaps)
	}
	if len(staged) != 1 {
		t.Fatalf("Expected 1 staged row, got %d", len(staged))
	}
	if staged[0].OrderLineKey != 1 {
		t.Errorf("Wrong row survived: %d", staged[0].OrderLineKey)
	}
}

func TestTransformOrdersUndefinedDerivations(t *testing.T) {
	line := deliveredLine()
	line.DeliveredAt = nil
	line.ApprovedAt = nil

	staged, _ := TransformOrders([]warehouse.OrderLine{line}, allKeys(), time.Now())
	if len(staged) != 1 {
		t.Fatalf("Expected 1 staged row, got %d", len(staged))
	}

	row := staged[0]
	if row.DeliveryDays != nil {
		t.Errorf("DeliveryDays should be undefined, got %v", *row.DeliveryDays)
	}
	if row.DeliveryStatus != nil {
		t.Errorf("DeliveryStatus should be undefined, got %v", *row.DeliveryStatus)
	}
	if row.ApprovalHours != nil {
		t.Errorf("ApprovalHours should be undefined, got %v", *row.ApprovalHours)
	}
	if row.TotalAmount != row.Price+row.FreightValue {
		t.Errorf("TotalAmount invariant broken: %v", row.TotalAmount)
	}
}

func TestTransformOrdersLateDelivery(t *testing.T) {
	line := deliveredLine()
	late := line.EstimatedDeliveryAt.AddDate(0, 0, 2)
	line.DeliveredAt = &late

	staged, _ := TransformOrders([]warehouse.OrderLine{line}, allKeys(), time.Now())
	if len(staged) != 1 {
		t.Fatalf("Expected 1 staged row, got %d", len(staged))
	}
	if staged[0].DeliveryStatus == nil || *staged[0].DeliveryStatus != derive.DeliveryLate {
		t.Errorf("DeliveryStatus = %v, want Late", staged[0].DeliveryStatus)
	}
}

// delivery_days and delivery_status must be defined together.
func TestTransformOrdersStatusDaysInvariant(t *testing.T) {
	withDelivery := deliveredLine()
	withoutDelivery := deliveredLine()
	withoutDelivery.OrderLineKey = 2
	withoutDelivery.DeliveredAt = nil

	staged, _ := TransformOrders(
		[]warehouse.OrderLine{withDelivery, withoutDelivery}, allKeys(), time.Now())

	for _, row := range staged {
		if (row.DeliveryDays == nil) != (row.DeliveryStatus == nil) {
			t.Errorf("Row %d: delivery_days and delivery_status defined inconsistently",
				row.OrderLineKey)
		}
	}
}

func TestOrdersStageMetadata(t *testing.T) {
	s := &OrdersStage{}
	if s.Name() != OrdersStageName {
		t.Errorf("Name = %s", s.Name())
	}
	if s.Layer() != "staging" {
		t.Errorf("Layer = %s", s.Layer())
	}
	if len(s.Inputs()) != 0 {
		t.Errorf("Staging stage should have no stage inputs")
	}
	if s.Table() != "stg_orders" {
		t.Errorf("Table = %s", s.Table())
	}
}
