package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/applytrack/internal/events"
	"github.com/yoockh/applytrack/internal/models"
)

func jsonValue(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func newActivity(jobID, typ, description string, from, to any, at time.Time) *models.ActivityLog {
	return &models.ActivityLog{
		ID:               uuid.NewString(),
		JobDescriptionID: jobID,
		Type:             typ,
		Description:      description,
		FromValue:        jsonValue(from),
		ToValue:          jsonValue(to),
		CreatedAt:        at,
	}
}

func newHistory(jobID string, status models.ApplicationStatus, notes string, at time.Time) *models.StatusHistory {
	return &models.StatusHistory{
		ID:               uuid.NewString(),
		JobDescriptionID: jobID,
		Status:           status,
		Date:             at,
		Notes:            notes,
	}
}

// activityNotifier pushes written activity rows to the live feed. Delivery is
// best effort: a failed publish is logged and never fails the write.
type activityNotifier struct {
	pub events.Publisher
	log *logrus.Logger
}

func (n activityNotifier) notify(ctx context.Context, job *models.JobDescription, entries ...*models.ActivityLog) {
	if n.pub == nil {
		return
	}
	for _, a := range entries {
		if a == nil {
			continue
		}
		ev := events.ActivityEvent{
			Type:         a.Type,
			JobID:        a.JobDescriptionID,
			SequentialID: job.SequentialID,
			Description:  a.Description,
			CreatedAt:    a.CreatedAt,
		}
		if err := n.pub.Publish(ctx, ev); err != nil && n.log != nil {
			n.log.WithError(err).WithField("job_id", a.JobDescriptionID).Warn("activity publish failed")
		}
	}
}
