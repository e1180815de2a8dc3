package entities

import "strings"

type Platform string

const (
	PlatformMeta     Platform = "meta"
	PlatformGoogle   Platform = "google"
	PlatformTikTok   Platform = "tiktok"
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
	PlatformSnapchat Platform = "snapchat"
)

func NormalizePlatform(value string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(value)))
}

func IsSupportedPlatform(value Platform) bool {
	switch value {
	case PlatformMeta, PlatformGoogle, PlatformTikTok, PlatformLinkedIn, PlatformTwitter, PlatformSnapchat:
		return true
	default:
		return false
	}
}

// UniquePlatforms keeps declaration order and drops blanks and repeats.
func UniquePlatforms(items []Platform) []Platform {
	seen := make(map[Platform]struct{}, len(items))
	out := make([]Platform, 0, len(items))
	for _, item := range items {
		item = NormalizePlatform(string(item))
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Connection is an external credential for one org on one platform.
type Connection struct {
	ConnectionID string
	OrgID        string
	Platform     Platform
	AccountID    string
	AccessToken  string
	IsActive     bool
}

func (c Connection) Active() bool {
	return c.IsActive && strings.TrimSpace(c.ConnectionID) != ""
}
