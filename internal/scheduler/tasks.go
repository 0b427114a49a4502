package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBulkProgression = "progression.bulk.run"

const TaskHeatRecalc = "contacts.heat.recalculate"

type BulkProgressionPayload struct {
	OrganizationID string `json:"organizationId"`
}

type HeatRecalcPayload struct {
	ContactID      string `json:"contactId"`
	OrganizationID string `json:"organizationId"`
}

func NewBulkProgressionTask(payload BulkProgressionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBulkProgression, data), nil
}

func ParseBulkProgressionPayload(task *asynq.Task) (BulkProgressionPayload, error) {
	var payload BulkProgressionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BulkProgressionPayload{}, err
	}
	return payload, nil
}

func NewHeatRecalcTask(payload HeatRecalcPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHeatRecalc, data), nil
}

func ParseHeatRecalcPayload(task *asynq.Task) (HeatRecalcPayload, error) {
	var payload HeatRecalcPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HeatRecalcPayload{}, err
	}
	return payload, nil
}
