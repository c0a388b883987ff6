package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/govsift/internal/model"
)

// Platform and channel categories are closed enumerations; a hosting
// convention we have never seen classifies as "other", never errors.
const (
	PlatformGitHub      = "github"
	PlatformGitLab      = "gitlab"
	PlatformGerrit      = "gerrit"
	PlatformSavannah    = "savannah"
	PlatformSourceForge = "sourceforge"
	PlatformSelfHosted  = "self-hosted"
	PlatformOther       = "other"

	ChannelMailingList  = "mailing-list"
	ChannelIssueTracker = "issue-tracker"
	ChannelForum        = "forum"
	ChannelChat         = "chat"
	ChannelOther        = "other"
)

// platformHosts maps exact host domains to platform categories
var platformHosts = map[string]string{
	"github.com":           PlatformGitHub,
	"gitlab.com":           PlatformGitLab,
	"savannah.gnu.org":     PlatformSavannah,
	"savannah.nongnu.org":  PlatformSavannah,
	"sourceforge.net":      PlatformSourceForge,
	"git.sr.ht":            PlatformSelfHosted,
	"gerrit.wikimedia.org": PlatformGerrit,
}

// mailingListPattern matches development mailing-list addresses
// (dev@project.org, users@x, foo-discuss@lists.y)
var mailingListPattern = regexp.MustCompile(`(?i)\b[a-z0-9._-]*(dev|devel|users?|discuss|announce)[a-z0-9._-]*@[a-z0-9.-]+\.[a-z]{2,}\b`)

// PlatformRule maps a record's structural metadata (host domain, issue
// tracker endpoint, mailing-list address) onto the platform/channel
// enumerations. It reads metadata fields only, never the prose ones.
type PlatformRule struct{}

// NewPlatformRule creates a platform/channel classification rule
func NewPlatformRule() *PlatformRule {
	return &PlatformRule{}
}

// Name returns the rule name
func (r *PlatformRule) Name() string { return "platform-channel" }

// Match emits a platform-adoption signal for repo-host records and
// channel-adoption signals for recognized communication endpoints.
func (r *PlatformRule) Match(rec *model.NormalizedRecord) []model.Signal {
	var signals []model.Signal

	if rec.SourceKind == model.SourceRepoHost && rec.CanonicalURL != "" {
		platform, confidence := classifyHost(rec.CanonicalURL)
		signals = append(signals, model.Signal{
			Kind:            model.SignalPlatformAdoption,
			SubjectEntityID: rec.EntityID,
			MatchedPattern:  "platform:" + platform,
			MatchedSpan:     model.Span{Field: "canonical_url"},
			Confidence:      confidence,
			EvidenceExcerpt: rec.CanonicalURL,
			Timestamp:       rec.Timestamp,
		})
	}

	if field, ok := rec.Field("mailing_list"); ok {
		if loc := mailingListPattern.FindStringIndex(field.Text); loc != nil {
			signals = append(signals, model.Signal{
				Kind:            model.SignalChannelAdoption,
				SubjectEntityID: rec.EntityID,
				MatchedPattern:  "channel:" + ChannelMailingList,
				MatchedSpan:     model.Span{Field: field.Name, Start: loc[0], End: loc[1]},
				Confidence:      model.ConfidenceHigh,
				EvidenceExcerpt: field.Text[loc[0]:loc[1]],
				Timestamp:       rec.Timestamp,
			})
		}
	}

	if field, ok := rec.Field("issue_tracker"); ok && field.Text != "" {
		signals = append(signals, model.Signal{
			Kind:            model.SignalChannelAdoption,
			SubjectEntityID: rec.EntityID,
			MatchedPattern:  "channel:" + classifyTracker(field.Text),
			MatchedSpan:     model.Span{Field: field.Name, Start: 0, End: len(field.Text)},
			Confidence:      model.ConfidenceHigh,
			EvidenceExcerpt: field.Text,
			Timestamp:       rec.Timestamp,
		})
	}

	return signals
}

// classifyHost maps a canonical URL's host to a platform category.
// Exact table entries are high confidence; suffix/substring inference is
// medium; everything else is "other" at low confidence.
func classifyHost(canonical string) (string, model.Confidence) {
	parsed, err := url.Parse(canonical)
	if err != nil || parsed.Host == "" {
		return PlatformOther, model.ConfidenceLow
	}
	host := strings.ToLower(parsed.Host)

	if platform, ok := platformHosts[host]; ok {
		return platform, model.ConfidenceHigh
	}
	switch {
	case strings.HasSuffix(host, ".github.com"):
		return PlatformGitHub, model.ConfidenceMedium
	case strings.Contains(host, "gitlab"):
		return PlatformGitLab, model.ConfidenceMedium
	case strings.Contains(host, "gerrit"):
		return PlatformGerrit, model.ConfidenceMedium
	case strings.HasPrefix(host, "git."):
		return PlatformSelfHosted, model.ConfidenceMedium
	}
	return PlatformOther, model.ConfidenceLow
}

// classifyTracker maps an issue tracker endpoint to a channel category
func classifyTracker(endpoint string) string {
	lower := strings.ToLower(endpoint)
	switch {
	case strings.Contains(lower, "/issues"),
		strings.Contains(lower, "bugzilla"),
		strings.Contains(lower, "jira"),
		strings.Contains(lower, "bugs."):
		return ChannelIssueTracker
	case strings.Contains(lower, "discourse"), strings.Contains(lower, "forum"):
		return ChannelForum
	case strings.Contains(lower, "discord"),
		strings.Contains(lower, "matrix.to"),
		strings.Contains(lower, "irc."),
		strings.Contains(lower, "zulip"):
		return ChannelChat
	}
	return ChannelOther
}
