package services

import "github.com/otd-mx/ordenes-api/models"

// OrderFilter narrows the log on Status, Prioridad and Requerido por.
// Values within a field are alternatives; fields are combined with AND.
// An empty field does not narrow.
type OrderFilter struct {
	Statuses    []string
	Priorities  []string
	RequestedBy []string
}

// IsEmpty reports whether the filter selects everything
func (f OrderFilter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Priorities) == 0 && len(f.RequestedBy) == 0
}

// Matches reports whether o passes the filter
func (f OrderFilter) Matches(o models.Order) bool {
	return matchesAny(f.Statuses, string(o.Status)) &&
		matchesAny(f.Priorities, string(o.Priority)) &&
		matchesAny(f.RequestedBy, o.RequestedBy)
}

// FilterOrders returns the orders of set that pass filter, in table order
func FilterOrders(set models.OrderSet, filter OrderFilter) models.OrderSet {
	if filter.IsEmpty() {
		return set
	}
	filtered := models.OrderSet{}
	for _, o := range set {
		if filter.Matches(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// FilterOptions lists the values a client can pick for each filter
type FilterOptions struct {
	Statuses    []string `json:"status"`
	Priorities  []string `json:"priority"`
	RequestedBy []string `json:"requested_by"`
}

// FilterOptionsFor collects the distinct non-empty values of each filter field in order of first appearance
func FilterOptionsFor(set models.OrderSet) FilterOptions {
	opts := FilterOptions{Statuses: []string{}, Priorities: []string{}, RequestedBy: []string{}}
	seen := map[string]map[string]bool{"status": {}, "priority": {}, "requested_by": {}}

	add := func(field string, list *[]string, value string) {
		if value == "" || seen[field][value] {
			return
		}
		seen[field][value] = true
		*list = append(*list, value)
	}

	for _, o := range set {
		add("status", &opts.Statuses, string(o.Status))
		add("priority", &opts.Priorities, string(o.Priority))
		add("requested_by", &opts.RequestedBy, o.RequestedBy)
	}
	return opts
}

func matchesAny(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}
