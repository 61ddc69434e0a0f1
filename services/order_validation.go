package services

import (
	"strings"

	"github.com/otd-mx/ordenes-api/models"
	"github.com/otd-mx/ordenes-api/utils"
)

const msgRequired = "is required"

// OrderForm is the creation form as submitted by a client.
// Binding tags cap field sizes; required fields and choices are checked by ParseOrderForm.
type OrderForm struct {
	OrderID          string       `json:"order_id" binding:"max=32"`
	DateRequired     *models.Date `json:"date_required"`
	RequestedBy      string       `json:"requested_by" binding:"max=120"`
	Department       string       `json:"department" binding:"max=64"`
	DateDesired      *models.Date `json:"date_desired"`
	Priority         string       `json:"priority" binding:"max=64"`
	WorkType         string       `json:"work_type" binding:"max=64"`
	Description      string       `json:"description" binding:"max=2000"`
	ProjectOrFixture string       `json:"project_or_fixture" binding:"max=200"`
	Notes            string       `json:"notes" binding:"max=2000"`
}

// OrderChangesForm is the edit form as submitted by a client
type OrderChangesForm struct {
	Status             *string      `json:"status" binding:"omitempty,max=32"`
	DateCompleted      *models.Date `json:"date_completed"`
	ClearDateCompleted bool         `json:"clear_date_completed"`
	Notes              *string      `json:"notes" binding:"omitempty,max=2000"`
}

// ParseOrderForm turns a submitted form into a NewOrder, reporting every
// missing or unrecognised field at once. Dates left blank default to today.
func ParseOrderForm(form OrderForm) (models.NewOrder, *ValidationError) {
	ve := &ValidationError{}
	draft := models.NewOrder{
		OrderID:          strings.TrimSpace(form.OrderID),
		DateRequired:     form.DateRequired,
		RequestedBy:      strings.TrimSpace(form.RequestedBy),
		DateDesired:      form.DateDesired,
		Description:      strings.TrimSpace(form.Description),
		ProjectOrFixture: strings.TrimSpace(form.ProjectOrFixture),
		Notes:            strings.TrimSpace(form.Notes),
	}
	if draft.DateRequired == nil {
		draft.DateRequired = utils.Today().Ptr()
	}
	if draft.DateDesired == nil {
		draft.DateDesired = utils.Today().Ptr()
	}

	requireText(ve, "requested_by", ColumnRequestedBy, draft.RequestedBy)

	var err error
	if draft.Department, err = models.ParseChoice(form.Department, models.Departments); err != nil {
		ve.Add("department", ColumnDepartment, err.Error())
	} else {
		requireChoice(ve, "department", ColumnDepartment, draft.Department.IsSelected())
	}
	if draft.Priority, err = models.ParseChoice(form.Priority, models.Priorities); err != nil {
		ve.Add("priority", ColumnPriority, err.Error())
	} else {
		requireChoice(ve, "priority", ColumnPriority, draft.Priority.IsSelected())
	}
	if draft.WorkType, err = models.ParseChoice(form.WorkType, models.WorkTypes); err != nil {
		ve.Add("work_type", ColumnWorkType, err.Error())
	} else {
		requireChoice(ve, "work_type", ColumnWorkType, draft.WorkType.IsSelected())
	}

	requireText(ve, "description", ColumnDescription, draft.Description)
	validateOrderID(ve, draft.OrderID)

	if ve.HasErrors() {
		return draft, ve
	}
	return draft, nil
}

// ValidateNewOrder checks the required fields of a draft in form order
func ValidateNewOrder(draft models.NewOrder) *ValidationError {
	ve := &ValidationError{}

	requireText(ve, "requested_by", ColumnRequestedBy, draft.RequestedBy)
	validateSelection(ve, "department", ColumnDepartment, draft.Department, models.Departments)
	validateSelection(ve, "priority", ColumnPriority, draft.Priority, models.Priorities)
	validateSelection(ve, "work_type", ColumnWorkType, draft.WorkType, models.WorkTypes)
	requireText(ve, "description", ColumnDescription, draft.Description)
	validateOrderID(ve, draft.OrderID)

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// ParseOrderChanges turns a submitted edit form into OrderChanges
func ParseOrderChanges(form OrderChangesForm) (models.OrderChanges, *ValidationError) {
	changes := models.OrderChanges{
		DateCompleted:      form.DateCompleted,
		ClearDateCompleted: form.ClearDateCompleted,
		Notes:              form.Notes,
	}

	ve := &ValidationError{}
	if form.Status != nil {
		choice, err := models.ParseChoice(*form.Status, models.Statuses)
		if status, ok := choice.Value(); err == nil && ok {
			changes.Status = &status
		} else {
			ve.Add("status", ColumnStatus, "must be one of: "+models.JoinLabels(models.Statuses))
		}
	}

	if other := ValidateOrderChanges(changes); other != nil {
		for _, f := range other.Fields {
			// a rejected status already explains why nothing would change
			if f.Field == "changes" && form.Status != nil {
				continue
			}
			ve.Fields = append(ve.Fields, f)
		}
	}
	if ve.HasErrors() {
		return changes, ve
	}
	return changes, nil
}

// ValidateOrderChanges rejects edits that name an unknown status, both set and
// clear the completion date, or change nothing at all
func ValidateOrderChanges(changes models.OrderChanges) *ValidationError {
	ve := &ValidationError{}

	if changes.Status != nil && !models.IsAllowed(*changes.Status, models.Statuses) {
		ve.Add("status", ColumnStatus, "must be one of: "+models.JoinLabels(models.Statuses))
	}
	if changes.DateCompleted != nil && changes.ClearDateCompleted {
		ve.Add("date_completed", ColumnDateCompleted, "cannot be set and cleared at the same time")
	}
	if changes.IsEmpty() {
		ve.Add("changes", "Cambios", "at least one of status, date_completed or notes is required")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

func requireText(ve *ValidationError, field, label, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, label, msgRequired)
	}
}

func requireChoice(ve *ValidationError, field, label string, selected bool) {
	if !selected {
		ve.Add(field, label, msgRequired)
	}
}

func validateSelection[T ~string](ve *ValidationError, field, label string, c models.Choice[T], allowed []T) {
	value, ok := c.Value()
	switch {
	case !ok:
		ve.Add(field, label, msgRequired)
	case !models.IsAllowed(value, allowed):
		ve.Add(field, label, "must be one of: "+models.JoinLabels(allowed))
	}
}

func validateOrderID(ve *ValidationError, orderID string) {
	if orderID != "" && !IsCanonicalOrderID(orderID) {
		ve.Add("order_id", ColumnOrderID, "must look like "+OrderIDPrefix+"0001")
	}
}
