package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowParent formats the resource name of a workflow.
func WorkflowParent(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

// StartExecution starts a workflow execution with argument encoded as JSON and
// returns the execution's resource name.
func StartExecution(ctx context.Context, client *executions.Client, parent string, argument any) (string, error) {
	payload, err := json.Marshal(argument)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow argument: %w", err)
	}
	execution, err := client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: parent,
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create workflow execution: %w", err)
	}
	return execution.GetName(), nil
}

// WorkflowStarter starts executions of a single workflow.
type WorkflowStarter struct {
	Client *executions.Client
	Parent string
}

func (w WorkflowStarter) Start(ctx context.Context, argument any) (string, error) {
	return StartExecution(ctx, w.Client, w.Parent, argument)
}
