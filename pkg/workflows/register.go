package workflows

import (
	"github.com/dukex/stepflow/pkg/activities"
	"github.com/dukex/stepflow/pkg/models"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// Registrar is the registration surface shared by a Temporal worker and the test environment.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds every workflow type and activity this service runs to r.
func Register(r Registrar, acts *activities.Activities, options StepOptions) {
	r.RegisterWorkflowWithOptions(NewSimple(options).Run, workflow.RegisterOptions{Name: models.WorkflowTypeSimple})

	r.RegisterActivityWithOptions(acts.ValidateInput, activity.RegisterOptions{Name: models.ActivityValidateInput})
	r.RegisterActivityWithOptions(acts.ProcessData, activity.RegisterOptions{Name: models.ActivityProcessData})
	r.RegisterActivityWithOptions(acts.StoreData, activity.RegisterOptions{Name: models.ActivityStoreData})
}

// Types lists the workflow type names Register binds.
func Types() []string {
	return []string{models.WorkflowTypeSimple}
}
