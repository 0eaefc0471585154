package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"estate-crm/internal/core/metrics"
	"estate-crm/internal/domain"
	"estate-crm/pkg/utils"
)

// ErrActivityAppend marks a failure of the audit append, as opposed to the lead write.
var ErrActivityAppend = errors.New("lead activity append failed")

type ActivityEvent struct {
	ContactID   string
	Type        domain.ActivityType
	Description string
	ActorID     string
	Metadata    map[string]any
}

// ActivityRecorder appends lead activity rows through whichever repository it is
// handed, so callers pass the transaction-bound one.
type ActivityRecorder struct {
	log *zap.Logger
	now func() time.Time
}

func NewActivityRecorder(l *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{log: l, now: time.Now}
}

func (r *ActivityRecorder) Record(ctx context.Context, repo domain.ActivityRepository, ev ActivityEvent) (*domain.LeadActivity, error) {
	at := r.now().UTC()
	a := &domain.LeadActivity{
		ID:           utils.NewSortableID(at),
		ContactID:    ev.ContactID,
		ActivityType: ev.Type,
		Description:  ev.Description,
		PerformedBy:  ev.ActorID,
		OccurredAt:   at,
	}
	if len(ev.Metadata) > 0 {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: encode metadata: %v", ErrActivityAppend, err)
		}
		a.Metadata = datatypes.JSON(b)
	}
	if err := repo.Append(ctx, a); err != nil {
		metrics.ActivityAppendFailures.Inc()
		r.log.Error("lead activity append failed",
			zap.String("contact_id", ev.ContactID),
			zap.String("activity_type", string(ev.Type)),
			zap.String("performed_by", ev.ActorID),
			zap.Error(err),
		)
		return nil, errors.Join(ErrActivityAppend, err)
	}
	return a, nil
}
