package staging

import (
	"testing"
	"time"

	"github.com/pgEdge/pgedge-martgen/internal/config"
	"github.com/pgEdge/pgedge-martgen/internal/warehouse"
)

func regionConfig() config.PipelineConfig {
	return config.PipelineConfig{
		StagingSchema: "staging",
		MartsSchema:   "marts",
		PrimaryRegion: "CA",
		TopRegions:    []string{"CA", "NY", "TX"},
	}
}

func TestTransformCustomersNormalization(t *testing.T) {
	customers := []warehouse.Customer{
		{CustomerKey: 1, CustomerID: "c1", City: "san francisco", State: "ca"},
		{CustomerKey: 2, CustomerID: "c2", City: "NEW YORK", State: "NY"},
		{CustomerKey: 3, CustomerID: "c3", City: "Miami", State: "fl"},
	}

	staged := TransformCustomers(customers, regionConfig(), time.Now())
	if len(staged) != 3 {
		t.Fatalf("Expected 3 staged rows, got %d", len(staged))
	}

	if staged[0].City != "San Francisco" || staged[0].State != "CA" {
		t.Errorf("Row 0 not normalized: %s / %s", staged[0].City, staged[0].State)
	}
	if staged[1].City != "New York" || staged[1].State != "NY" {
		t.Errorf("Row 1 not normalized: %s / %s", staged[1].City, staged[1].State)
	}
	if staged[2].City != "Miami" || staged[2].State != "FL" {
		t.Errorf("Row 2 not normalized: %s / %s", staged[2].City, staged[2].State)
	}
}

func TestTransformCustomersRegionFlags(t *testing.T) {
	customers := []warehouse.Customer{
		{CustomerKey: 1, CustomerID: "c1", City: "San Francisco", State: "CA"},
		{CustomerKey: 2, CustomerID: "c2", City: "New York", State: "NY"},
		{CustomerKey: 3, CustomerID: "c3", City: "Miami", State: "FL"},
	}

	staged := TransformCustomers(customers, regionConfig(), time.Now())

	if !staged[0].IsPrimaryRegion || !staged[0].IsTopRegionGroup {
		t.Error("CA customer should be primary region and top region group")
	}
	if staged[1].IsPrimaryRegion {
		t.Error("NY customer should not be primary region")
	}
	if !staged[1].IsTopRegionGroup {
		t.Error("NY customer should be in top region group")
	}
	if staged[2].IsPrimaryRegion || staged[2].IsTopRegionGroup {
		t.Error("FL customer should have no region flags set")
	}
}

// Re-running the transform on its own output yields the same output.
func TestTransformCustomersIdempotent(t *testing.T) {
	processedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	customers := []warehouse.Customer{
		{CustomerKey: 1, CustomerID: "c1", City: "porto alegre", State: "rs"},
		{CustomerKey: 2, CustomerID: "c2", City: "SAO PAULO", State: "SP"},
	}

	once := TransformCustomers(customers, regionConfig(), processedAt)

	renormalized := make([]warehouse.Customer, len(once))
	for i, r := range once {
		renormalized[i] = warehouse.Customer{
			CustomerKey: r.CustomerKey,
			CustomerID:  r.CustomerID,
			City:        r.City,
			State:       r.State,
		}
	}
	twice := TransformCustomers(renormalized, regionConfig(), processedAt)

	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("Row %d changed on re-run: %+v != %+v", i, once[i], twice[i])
		}
	}
}

func TestCustomersStageMetadata(t *testing.T) {
	s := &CustomersStage{}
	if s.Name() != CustomersStageName {
		t.Errorf("Name = %s", s.Name())
	}
	if len(s.Inputs()) != 0 {
		t.Errorf("Staging stage should have no stage inputs")
	}
	if s.Table() != "stg_customers" {
		t.Errorf("Table = %s", s.Table())
	}
}
