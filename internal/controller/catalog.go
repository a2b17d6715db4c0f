package controller

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
)

// CatalogSource reads the reference data maintained outside this console.
type CatalogSource interface {
	ListMandanten(ctx context.Context) ([]model.Mandant, error)
	ListAuftraege(ctx context.Context, mandantID string) ([]model.Auftrag, error)
	ListWorkflows(ctx context.Context) ([]model.Workflow, error)
	ListWorkflowSteps(ctx context.Context, workflowID string) ([]model.WorkflowStep, error)
}

func NewMandantList(src CatalogSource, logger *log.Logger) *Collection[model.Mandant] {
	return NewCollection[model.Mandant]("mandanten", src.ListMandanten, logger)
}

func NewWorkflowList(src CatalogSource, logger *log.Logger) *Collection[model.Workflow] {
	return NewCollection[model.Workflow]("workflows", src.ListWorkflows, logger)
}

// AuftragList lists orders, optionally scoped to one mandant.
type AuftragList struct {
	*Collection[model.Auftrag]

	mu        sync.Mutex
	mandantID string
}

func NewAuftragList(src CatalogSource, logger *log.Logger) *AuftragList {
	l := &AuftragList{}
	l.Collection = NewCollection[model.Auftrag]("auftraege", func(ctx context.Context) ([]model.Auftrag, error) {
		return src.ListAuftraege(ctx, l.MandantID())
	}, logger)
	return l
}

func (l *AuftragList) MandantID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mandantID
}

// SetMandant changes the scope ("" for all) and reloads.
func (l *AuftragList) SetMandant(ctx context.Context, mandantID string) error {
	l.mu.Lock()
	l.mandantID = strings.TrimSpace(mandantID)
	l.mu.Unlock()
	return l.Load(ctx)
}

// StepList lists the steps of one workflow.
type StepList struct {
	*Collection[model.WorkflowStep]

	mu         sync.Mutex
	workflowID string
}

func NewStepList(src CatalogSource, logger *log.Logger) *StepList {
	l := &StepList{}
	l.Collection = NewCollection[model.WorkflowStep]("workflow steps", func(ctx context.Context) ([]model.WorkflowStep, error) {
		l.mu.Lock()
		id := l.workflowID
		l.mu.Unlock()
		return src.ListWorkflowSteps(ctx, id)
	}, logger)
	return l
}

// SetWorkflow selects the workflow and loads its steps.
func (l *StepList) SetWorkflow(ctx context.Context, workflowID string) error {
	l.mu.Lock()
	l.workflowID = workflowID
	l.mu.Unlock()
	return l.Load(ctx)
}
