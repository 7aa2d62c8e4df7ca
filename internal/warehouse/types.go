//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import "time"

// OrderStatusDelivered is the only status retained by the staging layer.
const OrderStatusDelivered = "delivered"

// Customer is a row of dim_customers.
type Customer struct {
	CustomerKey int64
	CustomerID  string
	City        string
	State       string
	ZipPrefix   string
}

// Product is a row of dim_products. Category and physical dimensions
// are nullable in the source data.
type Product struct {
	ProductKey int64
	ProductID  string
	Category   *string
	WeightG    *float64
	LengthCM   *float64
	HeightCM   *float64
	WidthCM    *float64
}

// CalendarDate is a row of dim_date.
type CalendarDate struct {
	DateKey    int64
	Date       time.Time
	Year       int
	Quarter    int
	Month      int
	MonthName  string
	Day        int
	DayOfWeek  int
	DayName    string
	WeekOfYear int
	IsWeekend  bool
}

// OrderLine is a row of fact_orders: one row per order line item.
// OrderID repeats across the lines of a multi-item order.
type OrderLine struct {
	OrderLineKey        int64
	OrderID             string
	CustomerKey         int64
	ProductKey          int64
	DateKey             int64
	OrderItemID         int
	Price               float64
	FreightValue        float64
	Status              string
	PurchasedAt         time.Time
	ApprovedAt          *time.Time
	DeliveredAt         *time.Time
	EstimatedDeliveryAt time.Time
}
