package platforms

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/entities"
	domainerrors "adorchestra/contexts/campaign-orchestration/orchestration-engine/domain/errors"
	"adorchestra/contexts/campaign-orchestration/orchestration-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activeConnection = entities.Connection{
	ConnectionID: "conn-1",
	OrgID:        "org-1",
	AccessToken:  "token",
	IsActive:     true,
}

func TestSandboxSpeaksNativeVocabulary(t *testing.T) {
	sandbox := NewSandbox(entities.PlatformTikTok)
	ctx := context.Background()

	remote, err := sandbox.CreateCampaign(ctx, activeConnection, ports.CampaignSpec{
		Name:        "Launch",
		Objective:   "leads",
		DailyBudget: 25.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "ENABLE", remote.Status)

	campaign, ok := sandbox.Campaign(remote.ExternalID)
	require.True(t, ok)
	assert.Equal(t, "LEAD_GENERATION", campaign.Objective)
	assert.Equal(t, int64(2550), campaign.DailyBudgetMinor)

	paused, err := sandbox.PauseCampaign(ctx, activeConnection, remote.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "DISABLE", paused.Status)
}

func TestSandboxCreateIsIdempotentPerKey(t *testing.T) {
	sandbox := NewSandbox(entities.PlatformMeta)
	ctx := context.Background()
	spec := ports.CampaignSpec{Name: "Launch", IdempotencyKey: "orchestration:o-1:mapping:m-1"}

	first, err := sandbox.CreateCampaign(ctx, activeConnection, spec)
	require.NoError(t, err)
	second, err := sandbox.CreateCampaign(ctx, activeConnection, spec)
	require.NoError(t, err)
	assert.Equal(t, first.ExternalID, second.ExternalID)
	assert.Equal(t, 1, sandbox.LiveCampaigns())

	require.NoError(t, sandbox.DeleteCampaign(ctx, activeConnection, first.ExternalID))
	third, err := sandbox.CreateCampaign(ctx, activeConnection, spec)
	require.NoError(t, err)
	assert.NotEqual(t, first.ExternalID, third.ExternalID)
}

func TestSandboxRejectsRevokedToken(t *testing.T) {
	sandbox := NewSandbox(entities.PlatformGoogle)
	revoked := activeConnection
	revoked.AccessToken = ""

	_, err := sandbox.CreateCampaign(context.Background(), revoked, ports.CampaignSpec{Name: "Launch"})
	var platformErr *domainerrors.PlatformError
	require.True(t, errors.As(err, &platformErr))
	assert.Equal(t, http.StatusUnauthorized, platformErr.StatusCode)
	assert.False(t, domainerrors.IsRetryable(err))
}

func TestSandboxFetchReturnsQueuedDeltas(t *testing.T) {
	sandbox := NewSandbox(entities.PlatformMeta)
	ctx := context.Background()
	remote, err := sandbox.CreateCampaign(ctx, activeConnection, ports.CampaignSpec{Name: "Launch"})
	require.NoError(t, err)

	sandbox.QueuePerformance(entities.PerformanceDelta{Spend: 4, Clicks: 2})
	delta, err := sandbox.FetchPerformance(ctx, activeConnection, remote.ExternalID, ports.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, delta.Spend)

	delta, err = sandbox.FetchPerformance(ctx, activeConnection, remote.ExternalID, ports.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, entities.PerformanceDelta{}, delta)
}

func TestRegistryRejectsUnknownPlatform(t *testing.T) {
	registry, sandboxes := NewSandboxRegistry()
	assert.Len(t, sandboxes, len(SupportedPlatforms))

	_, err := registry.Adapter("myspace")
	assert.ErrorIs(t, err, domainerrors.ErrUnsupportedPlatform)

	adapter, err := registry.Adapter(entities.PlatformSnapchat)
	require.NoError(t, err)
	assert.Equal(t, entities.PlatformSnapchat, adapter.Platform())
}

func TestMinorUnitConversion(t *testing.T) {
	assert.Equal(t, int64(12_340_000), ToMinorUnits(entities.PlatformGoogle, 12.34))
	assert.Equal(t, int64(1234), ToMinorUnits(entities.PlatformMeta, 12.34))
	assert.Equal(t, 12.34, FromMinorUnits(entities.PlatformGoogle, 12_340_000))
	assert.Equal(t, "OUTCOME_AWARENESS", NativeObjective(entities.PlatformMeta, ""))
	assert.Equal(t, "CUSTOM", NativeObjective(entities.PlatformSnapchat, "custom"))
}
