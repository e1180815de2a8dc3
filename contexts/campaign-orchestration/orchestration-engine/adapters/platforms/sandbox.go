package platforms

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"

	"github.com/google/uuid"
)

const (
	OperationCreate           = "create_campaign"
	OperationPause            = "pause_campaign"
	OperationResume           = "resume_campaign"
	OperationUpdate           = "update_campaign"
	OperationDelete           = "delete_campaign"
	OperationFetchPerformance = "fetch_performance"
)

type SandboxCampaign struct {
	ExternalID       string
	Name             string
	Status           string
	Objective        string
	DailyBudgetMinor int64
	Settings         map[string]any
	Deleted          bool
}

// Sandbox is an in-process stand-in for a remote ad platform. It speaks the
// platform's native vocabulary and supports failure injection.
type Sandbox struct {
	platform entities.Platform

	mu          sync.Mutex
	campaigns   map[string]*SandboxCampaign
	byKey       map[string]string
	failures    map[string]error
	performance []entities.PerformanceDelta
	calls       []string
}

var _ ports.PlatformAdapter = (*Sandbox)(nil)

func NewSandbox(platform entities.Platform) *Sandbox {
	return &Sandbox{
		platform:  platform,
		campaigns: make(map[string]*SandboxCampaign),
		byKey:     make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (s *Sandbox) Platform() entities.Platform {
	return s.platform
}

// FailOn makes every subsequent call of operation return err until cleared.
func (s *Sandbox) FailOn(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[operation] = err
}

func (s *Sandbox) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]error)
}

// QueuePerformance enqueues the delta returned by the next fetch.
func (s *Sandbox) QueuePerformance(delta entities.PerformanceDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performance = append(s.performance, delta)
}

func (s *Sandbox) Campaign(externalID string) (SandboxCampaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.campaigns[externalID]
	if !ok {
		return SandboxCampaign{}, false
	}
	return *item, true
}

// LiveCampaigns counts campaigns that were created and not deleted.
func (s *Sandbox) LiveCampaigns() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.campaigns {
		if !item.Deleted {
			count++
		}
	}
	return count
}

func (s *Sandbox) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Sandbox) CreateCampaign(ctx context.Context, connection entities.Connection, spec ports.CampaignSpec) (ports.RemoteCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, OperationCreate, connection); err != nil {
		return ports.RemoteCampaign{}, err
	}
	if strings.TrimSpace(spec.Name) == "" {
		return ports.RemoteCampaign{}, domainerrors.NewPlatformError(string(s.platform), OperationCreate, http.StatusBadRequest, "campaign name is required")
	}
	if key := strings.TrimSpace(spec.IdempotencyKey); key != "" {
		if externalID, ok := s.byKey[key]; ok {
			if existing := s.campaigns[externalID]; existing != nil && !existing.Deleted {
				return remoteOf(existing), nil
			}
		}
	}

	item := &SandboxCampaign{
		ExternalID:       string(s.platform) + "_" + uuid.NewString(),
		Name:             spec.Name,
		Status:           ActiveStatus(s.platform),
		Objective:        NativeObjective(s.platform, spec.Objective),
		DailyBudgetMinor: ToMinorUnits(s.platform, spec.DailyBudget),
		Settings:         copySettings(spec.Config),
	}
	s.campaigns[item.ExternalID] = item
	if key := strings.TrimSpace(spec.IdempotencyKey); key != "" {
		s.byKey[key] = item.ExternalID
	}
	return remoteOf(item), nil
}

func (s *Sandbox) PauseCampaign(ctx context.Context, connection entities.Connection, externalID string) (ports.RemoteCampaign, error) {
	return s.setStatus(ctx, OperationPause, connection, externalID, PausedStatus(s.platform))
}

func (s *Sandbox) ResumeCampaign(ctx context.Context, connection entities.Connection, externalID string) (ports.RemoteCampaign, error) {
	return s.setStatus(ctx, OperationResume, connection, externalID, ActiveStatus(s.platform))
}

func (s *Sandbox) setStatus(
	ctx context.Context,
	operation string,
	connection entities.Connection,
	externalID string,
	status string,
) (ports.RemoteCampaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, operation, connection); err != nil {
		return ports.RemoteCampaign{}, err
	}
	item, err := s.lookup(operation, externalID)
	if err != nil {
		return ports.RemoteCampaign{}, err
	}
	item.Status = status
	return remoteOf(item), nil
}

func (s *Sandbox) UpdateCampaign(ctx context.Context, connection entities.Connection, externalID string, update ports.CampaignUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, OperationUpdate, connection); err != nil {
		return err
	}
	item, err := s.lookup(OperationUpdate, externalID)
	if err != nil {
		return err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		item.Name = strings.TrimSpace(*update.Name)
	}
	if update.DailyBudget != nil {
		item.DailyBudgetMinor = ToMinorUnits(s.platform, *update.DailyBudget)
	}
	for key, value := range update.Settings {
		if item.Settings == nil {
			item.Settings = make(map[string]any, len(update.Settings))
		}
		item.Settings[key] = value
	}
	return nil
}

func (s *Sandbox) DeleteCampaign(ctx context.Context, connection entities.Connection, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, OperationDelete, connection); err != nil {
		return err
	}
	item, err := s.lookup(OperationDelete, externalID)
	if err != nil {
		return err
	}
	item.Deleted = true
	for key, id := range s.byKey {
		if id == externalID {
			delete(s.byKey, key)
		}
	}
	return nil
}

func (s *Sandbox) FetchPerformance(
	ctx context.Context,
	connection entities.Connection,
	externalID string,
	_ ports.DateRange,
) (entities.PerformanceDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(ctx, OperationFetchPerformance, connection); err != nil {
		return entities.PerformanceDelta{}, err
	}
	if _, err := s.lookup(OperationFetchPerformance, externalID); err != nil {
		return entities.PerformanceDelta{}, err
	}
	if len(s.performance) == 0 {
		return entities.PerformanceDelta{}, nil
	}
	delta := s.performance[0]
	s.performance = s.performance[1:]
	return delta, nil
}

// begin must be called with s.mu held.
func (s *Sandbox) begin(ctx context.Context, operation string, connection entities.Connection) error {
	s.calls = append(s.calls, operation)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.failures[operation]; ok && err != nil {
		return err
	}
	if !connection.Active() || strings.TrimSpace(connection.AccessToken) == "" {
		return domainerrors.NewPlatformError(string(s.platform), operation, http.StatusUnauthorized, "access token rejected")
	}
	return nil
}

func (s *Sandbox) lookup(operation string, externalID string) (*SandboxCampaign, error) {
	item, ok := s.campaigns[strings.TrimSpace(externalID)]
	if !ok || item.Deleted {
		return nil, domainerrors.NewPlatformError(string(s.platform), operation, http.StatusNotFound, "campaign "+externalID+" not found")
	}
	return item, nil
}

func remoteOf(item *SandboxCampaign) ports.RemoteCampaign {
	return ports.RemoteCampaign{
		ExternalID: item.ExternalID,
		Name:       item.Name,
		Status:     item.Status,
	}
}

func copySettings(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
