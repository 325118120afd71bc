package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPropstackSync = "crm.propstack.sync"

type PropstackSyncPayload struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

func NewPropstackSyncTask(payload PropstackSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPropstackSync, data), nil
}

func ParsePropstackSyncPayload(task *asynq.Task) (PropstackSyncPayload, error) {
	var payload PropstackSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PropstackSyncPayload{}, err
	}
	return payload, nil
}
