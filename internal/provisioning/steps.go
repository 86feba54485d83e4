package provisioning

import (
	"context"

	"github.com/RedHatInsights/tenant_provisioner/internal/logger"
)

type policy int

const (
	// abort stops the workflow and reports the error, earlier steps are not undone
	abort policy = iota
	// logAndContinue records the error and runs the remaining steps
	logAndContinue
)

type step struct {
	name   string
	policy policy
	run    func(ctx context.Context) error
}

// runSteps executes steps in order and returns the first error from an
// abort step. Errors from logAndContinue steps are logged only.
func runSteps(ctx context.Context, operation string, steps []step) error {
	glog := logger.GetLogger(ctx)
	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			glog.Debugf("%s: step %s done", operation, s.name)
			continue
		}
		if s.policy == logAndContinue {
			glog.Warnf("%s: step %s failed, continuing %v", operation, s.name, err)
			continue
		}
		glog.Errorf("%s: step %s failed %v", operation, s.name, err)
		return err
	}
	return nil
}
