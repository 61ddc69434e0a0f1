package testutil

import (
	"testing"

	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/services"
)

// SampleOrder returns a complete pending order with the given id
func SampleOrder(orderID string) models.Order {
	return models.Order{
		OrderID:      orderID,
		DateRequired: models.NewDate(2024, 3, 1).Ptr(),
		RequestedBy:  "Ana López",
		Department:   models.DepartmentEngineering,
		DateDesired:  models.NewDate(2024, 3, 15).Ptr(),
		Priority:     models.PriorityHigh,
		WorkType:     models.WorkTypeFixture,
		Description:  "Fixtura de ensamble",
		Status:       models.StatusPending,
	}
}

// NewMockStore registers an order store over an in-memory workbook seeded with orders.
// With no orders the workbook does not exist yet.
func NewMockStore(t *testing.T, orders ...models.Order) (*services.OrderStore, *services.MockWorkbookStorage) {
	t.Helper()

	storage := services.NewMockWorkbookStorage()
	if len(orders) > 0 {
		SeedWorkbook(t, storage, orders...)
	}

	store := services.NewOrderStore(storage, services.DefaultSheetName, nil)
	services.SetOrderStore(store)
	t.Cleanup(func() { services.SetOrderStore(nil) })

	return store, storage
}

// SeedWorkbook writes orders into storage as a fresh workbook without counting a write
func SeedWorkbook(t *testing.T, storage *services.MockWorkbookStorage, orders ...models.Order) {
	t.Helper()

	data, err := services.WorkbookCodec{Sheet: services.DefaultSheetName}.Encode(nil, models.OrderSet(orders))
	if err != nil {
		t.Fatalf("Failed to encode seed workbook: %v", err)
	}
	storage.Seed(data)
}
