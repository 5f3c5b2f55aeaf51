package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/cache"
	"skinvault/internal/lock"
	"skinvault/internal/model"
	"skinvault/pkg/uid"
)

// runner wraps one pipeline run with its lock and its recorded status.
type runner struct {
	locker  lock.Locker
	status  *cache.StatusStore
	lockTTL time.Duration
	log     *logrus.Entry
	now     func() time.Time
}

// run executes fn while holding the pipeline lock. A busy lock returns lock.ErrBusy
// and records nothing; any other outcome is stored as the pipeline's last status.
func (r *runner) run(ctx context.Context, pipeline string, fn func(ctx context.Context, st *model.RunStatus) error) (model.RunStatus, error) {
	release, err := r.locker.Acquire(ctx, pipeline, r.lockTTL)
	if err != nil {
		return model.RunStatus{}, err
	}
	defer release()

	st := model.RunStatus{
		RunID:     uid.RunID(pipeline),
		Pipeline:  pipeline,
		StartedAt: r.now().UTC(),
	}
	log := r.log.WithFields(logrus.Fields{"pipeline": pipeline, "run_id": st.RunID})
	log.Info("run started")

	runErr := fn(ctx, &st)

	st.FinishedAt = r.now().UTC()
	st.Outcome = model.RunSucceeded
	if runErr != nil {
		st.Outcome = model.RunFailed
		st.Error = runErr.Error()
	}

	// The status write must not depend on the caller still waiting.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.status.Put(saveCtx, st); err != nil {
		log.WithError(err).Warn("failed to record run status")
	}

	log = log.WithField("duration", st.FinishedAt.Sub(st.StartedAt).String())
	if runErr != nil {
		log.WithError(runErr).Error("run failed")
		return st, runErr
	}
	log.Info("run finished")
	return st, nil
}
