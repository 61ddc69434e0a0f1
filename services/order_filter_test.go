package services

import (
	"testing"

	"github.com/otd-mx/ordenes-api/models"
	"github.com/stretchr/testify/assert"
)

func filterFixture() models.OrderSet {
	a := testOrder("OTD-MX-0001")

	b := testOrder("OTD-MX-0002")
	b.Priority = models.PriorityLow
	b.RequestedBy = "Luis Pérez"

	c := testOrder("OTD-MX-0003")
	c.Status = models.StatusCompleted
	c.Priority = models.PriorityLow

	return models.OrderSet{a, b, c}
}

func TestFilterOrders(t *testing.T) {
	tests := []struct {
		name   string
		filter OrderFilter
		want   []string
	}{
		{"empty filter keeps everything", OrderFilter{}, []string{"OTD-MX-0001", "OTD-MX-0002", "OTD-MX-0003"}},
		{"single status", OrderFilter{Statuses: []string{"Completado"}}, []string{"OTD-MX-0003"}},
		{"values within a field are alternatives", OrderFilter{Statuses: []string{"Pendiente", "Completado"}}, []string{"OTD-MX-0001", "OTD-MX-0002", "OTD-MX-0003"}},
		{"fields combine with AND", OrderFilter{Priorities: []string{"Baja"}, RequestedBy: []string{"Ana López"}}, []string{"OTD-MX-0003"}},
		{"no match", OrderFilter{RequestedBy: []string{"Nadie"}}, []string{}},
		{"labels are compared exactly", OrderFilter{Statuses: []string{"pendiente"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterOrders(filterFixture(), tt.filter).IDs())
		})
	}
}

func TestFilterOptionsFor(t *testing.T) {
	set := filterFixture()
	set = append(set, models.Order{OrderID: "OTD-MX-0004"})

	opts := FilterOptionsFor(set)
	assert.Equal(t, []string{"Pendiente", "Completado"}, opts.Statuses)
	assert.Equal(t, []string{"Alta", "Baja"}, opts.Priorities)
	assert.Equal(t, []string{"Ana López", "Luis Pérez"}, opts.RequestedBy)
}

func TestFilterOptionsForEmptySet(t *testing.T) {
	opts := FilterOptionsFor(models.OrderSet{})
	assert.NotNil(t, opts.Statuses)
	assert.Empty(t, opts.Statuses)
	assert.Empty(t, opts.Priorities)
	assert.Empty(t, opts.RequestedBy)
}
