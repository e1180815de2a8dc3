package orchestrationengine

import (
	"log/slog"

	httpadapter "adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/http"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/memory"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/adapters/platforms"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/commands"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/queries"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/syncing"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/application/workflow"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	Engine       workflow.Engine
	Sync         commands.SyncUseCase
	Deploy       commands.DeployUseCase
	Pause        commands.PauseUseCase
	Resume       commands.ResumeUseCase
	Optimize     commands.OptimizeUseCase
	UpdateBudget commands.UpdatePlatformBudgetUseCase

	Store     *memory.Store
	Sandboxes map[entities.Platform]*platforms.Sandbox
}

// Dependencies.Store is the non-transactional view of the aggregate store;
// UnitOfWork hands out the transactional one.
type Dependencies struct {
	UnitOfWork  ports.UnitOfWork
	Store       ports.AggregateStore
	Workflows   ports.WorkflowRepository
	SyncLogs    ports.SyncLogRepository
	Connections ports.ConnectionRegistry
	Templates   ports.TemplateProvider
	Adapters    ports.AdapterRegistry
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	syncService := syncing.Service{
		Adapters:    deps.Adapters,
		Connections: deps.Connections,
		SyncLogs:    deps.SyncLogs,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	engine := workflow.Engine{
		UnitOfWork:  deps.UnitOfWork,
		Store:       deps.Store,
		Workflows:   deps.Workflows,
		Connections: deps.Connections,
		Sync:        syncService,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}

	createFromTemplate := commands.CreateFromTemplateUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Templates:   deps.Templates,
		Connections: deps.Connections,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	deploy := commands.DeployUseCase{
		Orchestrations: deps.Store,
		Engine:         engine,
		Logger:         deps.Logger,
	}
	syncOrchestration := commands.SyncUseCase{
		Store:  deps.Store,
		Sync:   syncService,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	pause := commands.PauseUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Sync:        syncService,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	resume := commands.ResumeUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Sync:        syncService,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	optimize := commands.OptimizeUseCase{
		Orchestrations: deps.Store,
		Engine:         engine,
		Logger:         deps.Logger,
	}
	requestOperation := commands.RequestOperationUseCase{
		UnitOfWork:  deps.UnitOfWork,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Logger:      deps.Logger,
	}
	updateBudget := commands.UpdatePlatformBudgetUseCase{
		UnitOfWork: deps.UnitOfWork,
		Sync:       syncService,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateFromTemplate: createFromTemplate,
			RequestOperation:   requestOperation,
			GetOrchestration: queries.GetOrchestrationUseCase{
				Store:  deps.Store,
				Logger: deps.Logger,
			},
			ListOrchestrations: queries.ListOrchestrationsUseCase{
				Orchestrations: deps.Store,
				Logger:         deps.Logger,
			},
			GetPerformance: queries.GetAggregatedPerformanceUseCase{
				Store:  deps.Store,
				Logger: deps.Logger,
			},
			ListWorkflows: queries.ListWorkflowsUseCase{
				Orchestrations: deps.Store,
				Workflows:      deps.Workflows,
				Logger:         deps.Logger,
			},
			ListSyncLogs: queries.ListSyncLogsUseCase{
				Orchestrations: deps.Store,
				SyncLogs:       deps.SyncLogs,
				Logger:         deps.Logger,
			},
			Logger: deps.Logger,
		},
		Engine:       engine,
		Sync:         syncOrchestration,
		Deploy:       deploy,
		Pause:        pause,
		Resume:       resume,
		Optimize:     optimize,
		UpdateBudget: updateBudget,
	}
}

// NewInMemoryModule wires the memory store and sandbox platform adapters.
func NewInMemoryModule(connections []entities.Connection, templates []entities.Template, logger *slog.Logger) Module {
	store := memory.NewStore(connections, templates)
	registry, sandboxes := platforms.NewSandboxRegistry()
	module := NewModule(Dependencies{
		UnitOfWork:  store,
		Store:       store,
		Workflows:   store,
		SyncLogs:    store,
		Connections: store,
		Templates:   store,
		Adapters:    registry,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	module.Sandboxes = sandboxes
	return module
}
