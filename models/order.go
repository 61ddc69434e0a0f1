package models

// Department is the requesting department of a work order
type Department string

const (
	DepartmentEngineering    Department = "Ingeniería"
	DepartmentMaintenance    Department = "Mantenimiento"
	DepartmentNPI            Department = "NPI"
	DepartmentProduction     Department = "Producción"
	DepartmentCNCProgramming Department = "Programación CNC"
	DepartmentSafety         Department = "Seguridad"
)

// Departments lists the departments in the order they are offered on the form
var Departments = []Department{
	DepartmentEngineering,
	DepartmentMaintenance,
	DepartmentNPI,
	DepartmentProduction,
	DepartmentCNCProgramming,
	DepartmentSafety,
}

// Priority is the urgency of a work order
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Baja"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// WorkType is the kind of work requested
type WorkType string

const (
	WorkTypeDrawing      WorkType = "Dibujo"
	WorkTypeFixture      WorkType = "Fixtura"
	WorkType3DPrinting   WorkType = "Impresión 3D"
	WorkTypeResearch     WorkType = "Investigación"
	WorkTypeModification WorkType = "Modificación"
	WorkTypeOther        WorkType = "Otros"
	WorkTypePLC          WorkType = "PLC"
)

var WorkTypes = []WorkType{
	WorkTypeDrawing,
	WorkTypeFixture,
	WorkType3DPrinting,
	WorkTypeResearch,
	WorkTypeModification,
	WorkTypeOther,
	WorkTypePLC,
}

// Status is the progress state of a work order. Transitions are not constrained.
type Status string

const (
	StatusPending    Status = "Pendiente"
	StatusInProgress Status = "En Progreso"
	StatusCompleted  Status = "Completado"
)

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Order represents one row of the work order log
type Order struct {
	OrderID          string     `json:"order_id"`
	DateRequired     *Date      `json:"date_required"`
	RequestedBy      string     `json:"requested_by"`
	Department       Department `json:"department"`
	DateDesired      *Date      `json:"date_desired"`
	Priority         Priority   `json:"priority"`
	WorkType         WorkType   `json:"work_type"`
	Description      string     `json:"description"`
	ProjectOrFixture string     `json:"project_or_fixture"`
	Status           Status     `json:"status"`
	DateCompleted    *Date      `json:"date_completed"`
	Notes            string     `json:"notes"`
}

// OrderSet is the complete collection of orders at a point in time.
// It is the unit of persistence: every mutation produces a new OrderSet.
type OrderSet []Order

// Find returns the order with the given id
func (s OrderSet) Find(orderID string) (Order, bool) {
	for _, o := range s {
		if o.OrderID == orderID {
			return o, true
		}
	}
	return Order{}, false
}

// IDs returns the order ids in table order
func (s OrderSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, o := range s {
		ids = append(ids, o.OrderID)
	}
	return ids
}

// NewOrder holds the values captured by the creation form.
// Selection fields stay Unselected until the user picks a value.
type NewOrder struct {
	OrderID          string
	DateRequired     *Date
	RequestedBy      string
	Department       Choice[Department]
	DateDesired      *Date
	Priority         Choice[Priority]
	WorkType         Choice[WorkType]
	Description      string
	ProjectOrFixture string
	Notes            string
}

// OrderChanges describes an edit of an existing order.
// Nil fields are left untouched.
type OrderChanges struct {
	Status             *Status
	DateCompleted      *Date
	ClearDateCompleted bool
	Notes              *string
}

// IsEmpty reports whether the changes would leave an order untouched
func (c OrderChanges) IsEmpty() bool {
	return c.Status == nil && c.DateCompleted == nil && !c.ClearDateCompleted && c.Notes == nil
}
