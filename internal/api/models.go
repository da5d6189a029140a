package api

import (
	"time"

	"github.com/phrazzld/asyncsql/internal/task"
)

// SubmitQueryRequest defines the payload for POST /api/queries.
type SubmitQueryRequest struct {
	Query string `json:"query" validate:"required"`

	// EntityID binds the result to an entity. Omit it for a global query.
	EntityID *int `json:"entity_id,omitempty" validate:"omitempty,gte=0"`

	// Capture keeps the result rows. Without it the result is always empty.
	Capture bool `json:"capture"`
}

// Target converts the request into a scheduler target.
func (r SubmitQueryRequest) Target() task.Target {
	if r.EntityID == nil {
		return task.Global
	}
	return task.Entity(task.EntityID(*r.EntityID))
}

// SubmitQueryResponse is returned once a query is queued.
type SubmitQueryResponse struct {
	TaskID task.TaskID `json:"task_id"`
	Target string      `json:"target"`
}

// ResultBody is the JSON form of a delivered result.
type ResultBody struct {
	TaskID      task.TaskID `json:"task_id" yaml:"task_id"`
	Target      string      `json:"target" yaml:"target"`
	HasValue    bool        `json:"has_value" yaml:"has_value"`
	Rows        [][]*string `json:"rows" yaml:"rows"`
	DeliveredAt time.Time   `json:"delivered_at" yaml:"delivered_at"`
}

// NewResultBody converts a scheduler result. A nil result has no value and
// no rows; SQL NULL columns become JSON null.
func NewResultBody(id task.TaskID, target task.Target, result task.Result) ResultBody {
	body := ResultBody{
		TaskID:      id,
		Target:      target.String(),
		HasValue:    result != nil,
		DeliveredAt: time.Now().UTC(),
	}
	if result == nil {
		return body
	}

	body.Rows = make([][]*string, 0, len(result))
	for _, row := range result {
		out := make([]*string, len(row))
		for i, field := range row {
			if field.Valid {
				v := field.String
				out[i] = &v
			}
		}
		body.Rows = append(body.Rows, out)
	}
	return body
}
