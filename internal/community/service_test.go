package community

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gatekeeper/internal/models"
	"gatekeeper/internal/notifications"
	"gatekeeper/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories mirroring the conditional-update semantics of the
// real store. The queue-side repos exist because BulkModerate and the
// dashboard drive a real queue service.

type memoryModeratorRepo struct {
	mods []*models.CommunityModerator
	next int
}

func (m *memoryModeratorRepo) Create(_ context.Context, mod *models.CommunityModerator) error {
	if mod.ID == "" {
		m.next++
		mod.ID = fmt.Sprintf("mod-%d", m.next)
	}
	m.mods = append(m.mods, mod)
	return nil
}

func (m *memoryModeratorRepo) GetByID(_ context.Context, id string) (*models.CommunityModerator, error) {
	for _, mod := range m.mods {
		if mod.ID == id {
			return mod, nil
		}
	}
	return nil, fmt.Errorf("record not found")
}

func (m *memoryModeratorRepo) ListActiveByUser(_ context.Context, userID string) ([]*models.CommunityModerator, error) {
	var out []*models.CommunityModerator
	for _, mod := range m.mods {
		if mod.UserID == userID && mod.IsActive {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *memoryModeratorRepo) ListActiveByCommunity(_ context.Context, communityID string) ([]*models.CommunityModerator, error) {
	var out []*models.CommunityModerator
	for _, mod := range m.mods {
		if mod.CommunityID == communityID && mod.IsActive {
			out = append(out, mod)
		}
	}
	return out, nil
}

func (m *memoryModeratorRepo) Update(_ context.Context, mod *models.CommunityModerator) error {
	for i, stored := range m.mods {
		if stored.ID == mod.ID {
			m.mods[i] = mod
		}
	}
	return nil
}

func (m *memoryModeratorRepo) Deactivate(_ context.Context, userID, communityID string) (bool, error) {
	changed := false
	for _, mod := range m.mods {
		if mod.UserID == userID && mod.CommunityID == communityID && mod.IsActive {
			mod.IsActive = false
			changed = true
		}
	}
	return changed, nil
}

type memoryBanRepo struct {
	bans []*models.UserBan
	next int
}

func (m *memoryBanRepo) Create(_ context.Context, ban *models.UserBan) error {
	if ban.ID == "" {
		m.next++
		ban.ID = fmt.Sprintf("ban-%d", m.next)
	}
	m.bans = append(m.bans, ban)
	return nil
}

func (m *memoryBanRepo) GetByID(_ context.Context, id string) (*models.UserBan, error) {
	for _, ban := range m.bans {
		if ban.ID == id {
			return ban, nil
		}
	}
	return nil, nil
}

func (m *memoryBanRepo) ListByUser(_ context.Context, userID string) ([]*models.UserBan, error) {
	var out []*models.UserBan
	for _, ban := range m.bans {
		if ban.UserID == userID {
			out = append(out, ban)
		}
	}
	return out, nil
}

func (m *memoryBanRepo) ListActiveByUser(_ context.Context, userID string) ([]*models.UserBan, error) {
	var out []*models.UserBan
	for _, ban := range m.bans {
		if ban.UserID == userID && ban.IsActive {
			out = append(out, ban)
		}
	}
	return out, nil
}

func (m *memoryBanRepo) FindActive(_ context.Context, userID string, communityID *string) (*models.UserBan, error) {
	for _, ban := range m.bans {
		if ban.UserID != userID || !ban.IsActive {
			continue
		}
		if communityID == nil && ban.CommunityID == nil {
			return ban, nil
		}
		if communityID != nil && ban.CommunityID != nil && *ban.CommunityID == *communityID {
			return ban, nil
		}
	}
	return nil, nil
}

func (m *memoryBanRepo) Deactivate(_ context.Context, id string) (bool, error) {
	for _, ban := range m.bans {
		if ban.ID == id && ban.IsActive {
			ban.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBanRepo) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, ban := range m.bans {
		if ban.IsActive && ban.ExpiresAt != nil && ban.ExpiresAt.Before(now) {
			ban.IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *memoryBanRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, ban := range m.bans {
		if ban.IsActive {
			n++
		}
	}
	return n, nil
}

type memoryAppealRepo struct {
	appeals []*models.Appeal
	next    int
}

func (m *memoryAppealRepo) Create(_ context.Context, appeal *models.Appeal) error {
	if appeal.ID == "" {
		m.next++
		appeal.ID = fmt.Sprintf("appeal-%d", m.next)
	}
	m.appeals = append(m.appeals, appeal)
	return nil
}

func (m *memoryAppealRepo) GetByID(_ context.Context, id string) (*models.Appeal, error) {
	for _, appeal := range m.appeals {
		if appeal.ID == id {
			return appeal, nil
		}
	}
	return nil, nil
}

func (m *memoryAppealRepo) ListPending(_ context.Context) ([]*models.Appeal, error) {
	var out []*models.Appeal
	for _, appeal := range m.appeals {
		if appeal.Status == models.AppealPending {
			out = append(out, appeal)
		}
	}
	return out, nil
}

func (m *memoryAppealRepo) ListByUser(_ context.Context, userID string) ([]*models.Appeal, error) {
	var out []*models.Appeal
	for _, appeal := range m.appeals {
		if appeal.UserID == userID {
			out = append(out, appeal)
		}
	}
	return out, nil
}

func (m *memoryAppealRepo) DecideIfPending(_ context.Context, id string, status models.AppealStatus, reviewedBy, resolution string) (bool, error) {
	for _, appeal := range m.appeals {
		if appeal.ID == id && appeal.Status == models.AppealPending {
			appeal.Status = status
			appeal.ReviewedBy = &reviewedBy
			appeal.Resolution = &resolution
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAppealRepo) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, appeal := range m.appeals {
		if appeal.Status == models.AppealPending {
			n++
		}
	}
	return n, nil
}

type memoryActionRepo struct {
	actions []*models.ModerationAction
}

func (m *memoryActionRepo) Create(_ context.Context, action *models.ModerationAction) error {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	m.actions = append(m.actions, action)
	return nil
}

func (m *memoryActionRepo) ListByTarget(_ context.Context, targetType, targetID string) ([]*models.ModerationAction, error) {
	var out []*models.ModerationAction
	for _, a := range m.actions {
		if a.TargetType == targetType && a.TargetID == targetID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryActionRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, a := range m.actions {
		if !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memoryActionRepo) CountByModeratorSince(_ context.Context, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, a := range m.actions {
		if !a.CreatedAt.Before(since) {
			counts[a.ModeratorID]++
		}
	}
	return counts, nil
}

type memoryReportRepo struct {
	reports []*models.UserReport
	next    int
}

func (m *memoryReportRepo) Create(_ context.Context, report *models.UserReport) error {
	if report.ID == "" {
		m.next++
		report.ID = fmt.Sprintf("report-%d", m.next)
	}
	m.reports = append(m.reports, report)
	return nil
}

func (m *memoryReportRepo) GetByID(_ context.Context, id string) (*models.UserReport, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryReportRepo) ListPending(_ context.Context) ([]*models.UserReport, error) {
	var out []*models.UserReport
	for _, r := range m.reports {
		if r.Status == models.ReportPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) ListByReporter(_ context.Context, reporterID string) ([]*models.UserReport, error) {
	var out []*models.UserReport
	for _, r := range m.reports {
		if r.ReporterID == reporterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) MarkReviewedByQueueItem(_ context.Context, queueItemID, reviewedBy string, status models.ReportStatus) error {
	for _, r := range m.reports {
		if r.QueueItemID != nil && *r.QueueItemID == queueItemID && r.Status == models.ReportPending {
			r.Status = status
			r.ReviewedBy = &reviewedBy
		}
	}
	return nil
}

func (m *memoryReportRepo) DeleteClosedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memoryQueueRepo struct {
	items []*models.QueueItem
	next  int
}

func (m *memoryQueueRepo) Create(_ context.Context, item *models.QueueItem) error {
	if item.ID == "" {
		m.next++
		item.ID = fmt.Sprintf("item-%d", m.next)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	m.items = append(m.items, item)
	return nil
}

func (m *memoryQueueRepo) GetByID(_ context.Context, id string) (*models.QueueItem, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}

func (m *memoryQueueRepo) FindOpenByContent(_ context.Context, contentID string, contentType models.ContentType) (*models.QueueItem, error) {
	for _, item := range m.items {
		if item.ContentID == contentID && item.ContentType == contentType && item.Status != models.QueueCompleted {
			return item, nil
		}
	}
	return nil, nil
}

func (m *memoryQueueRepo) ListPending(_ context.Context, _ *string, _ *models.QueuePriority) ([]*models.QueueItem, error) {
	var out []*models.QueueItem
	for _, item := range m.items {
		if item.Status == models.QueuePending {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryQueueRepo) UpdatePriority(_ context.Context, id string, priority models.QueuePriority) error {
	for _, item := range m.items {
		if item.ID == id {
			item.Priority = priority
		}
	}
	return nil
}

func (m *memoryQueueRepo) TransitionToInReview(_ context.Context, id, moderatorID string) (bool, error) {
	for _, item := range m.items {
		if item.ID == id && item.Status == models.QueuePending {
			item.Status = models.QueueInReview
			item.AssignedTo = &moderatorID
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryQueueRepo) CompleteReview(_ context.Context, id, moderatorID string) (bool, error) {
	for _, item := range m.items {
		if item.ID == id && item.Status == models.QueueInReview &&
			item.AssignedTo != nil && *item.AssignedTo == moderatorID {
			item.Status = models.QueueCompleted
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryQueueRepo) CountByStatus(_ context.Context) (map[models.QueueStatus]int64, error) {
	counts := make(map[models.QueueStatus]int64)
	for _, item := range m.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (m *memoryQueueRepo) DeleteCompletedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memoryResultRepo struct {
	results []*models.ContentModerationResult
}

func (m *memoryResultRepo) Create(_ context.Context, result *models.ContentModerationResult) error {
	m.results = append(m.results, result)
	return nil
}

func (m *memoryResultRepo) ListSince(_ context.Context, _, _ *time.Time) ([]*models.ContentModerationResult, error) {
	return m.results, nil
}

func (m *memoryResultRepo) ListByContent(_ context.Context, _ string, _ models.ContentType) ([]*models.ContentModerationResult, error) {
	return nil, nil
}

func (m *memoryResultRepo) DeleteCreatedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type capturingPublisher struct {
	events []notifications.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event notifications.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) has(eventType notifications.EventType) bool {
	for _, e := range p.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

type communityFixture struct {
	svc        *CommunityModerationService
	moderators *memoryModeratorRepo
	bans       *memoryBanRepo
	appeals    *memoryAppealRepo
	actions    *memoryActionRepo
	reports    *memoryReportRepo
	queues     *memoryQueueRepo
	results    *memoryResultRepo
	publisher  *capturingPublisher
}

func newCommunityFixture() *communityFixture {
	f := &communityFixture{
		moderators: &memoryModeratorRepo{},
		bans:       &memoryBanRepo{},
		appeals:    &memoryAppealRepo{},
		actions:    &memoryActionRepo{},
		reports:    &memoryReportRepo{},
		queues:     &memoryQueueRepo{},
		results:    &memoryResultRepo{},
		publisher:  &capturingPublisher{},
	}
	queueSvc := queue.NewModerationQueueService(f.queues, f.reports, f.results, f.actions, f.publisher)
	f.svc = NewCommunityModerationService(f.moderators, f.bans, f.appeals, f.actions, f.reports, queueSvc, f.publisher)
	return f
}

// grant appoints a moderator with the given permissions, bypassing the
// service so tests control the exact grants.
func (f *communityFixture) grant(userID, communityID string, perms ...models.Permission) {
	_ = f.moderators.Create(context.Background(), &models.CommunityModerator{
		UserID:      userID,
		CommunityID: communityID,
		Role:        models.RoleModerator,
		Permissions: perms,
		IsActive:    true,
		AppointedBy: "test",
	})
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestHasPermission_Scoping(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	f.grant("scoped", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeCommunity})
	f.grant("global", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	ok, err := f.svc.HasPermission(ctx, "scoped", models.PermBanUsers, "community-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HasPermission(ctx, "scoped", models.PermBanUsers, "community-b")
	require.NoError(t, err)
	assert.False(t, ok)

	// An empty community asks for the action anywhere.
	ok, err = f.svc.HasPermission(ctx, "scoped", models.PermBanUsers, "")
	require.NoError(t, err)
	assert.True(t, ok)

	// A global grant covers every community.
	ok, err = f.svc.HasPermission(ctx, "global", models.PermBanUsers, "community-b")
	require.NoError(t, err)
	assert.True(t, ok)

	// Holding one action grants nothing about another.
	ok, err = f.svc.HasPermission(ctx, "scoped", models.PermManageRules, "community-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveModerator(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	_, err := f.svc.AppointModerator(ctx, "admin", "user-1", "community-a", models.RoleModerator, nil)
	require.NoError(t, err)

	removed, err := f.svc.RemoveModerator(ctx, "user-1", "community-a")
	require.NoError(t, err)
	assert.True(t, removed)

	again, err := f.svc.RemoveModerator(ctx, "user-1", "community-a")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestBanUser_Authorization(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	communityA := "community-a"

	_, err := f.svc.BanUser(ctx, "nobody", "target", &communityA, models.BanPermanent, "spam", 0)
	assertForbidden(t, err)

	// A community-scoped grant does not reach another community.
	f.grant("mod-a", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeCommunity})
	communityB := "community-b"
	_, err = f.svc.BanUser(ctx, "mod-a", "target", &communityB, models.BanPermanent, "spam", 0)
	assertForbidden(t, err)

	// A global ban (nil community) needs a grant valid anywhere.
	ban, err := f.svc.BanUser(ctx, "mod-a", "target", nil, models.BanPermanent, "spam", 0)
	require.NoError(t, err)
	assert.Nil(t, ban.CommunityID)
}

func TestBanUser_TemporaryNeedsDuration(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	_, err := f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanTemporary, "cooling off", 0)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	ban, err := f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanTemporary, "cooling off", 24)
	require.NoError(t, err)
	require.NotNil(t, ban.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), *ban.ExpiresAt, time.Minute)

	// Every ban writes a high-severity audit action.
	require.Len(t, f.actions.actions, 1)
	assert.Equal(t, models.ActionBanUser, f.actions.actions[0].ActionType)
	assert.Equal(t, models.SeverityHigh, f.actions.actions[0].Severity)
	assert.True(t, f.publisher.has(notifications.EventBanIssued))
}

func TestUnbanUser(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermBanUsers, Scope: models.ScopeGlobal})

	ban, err := f.svc.BanUser(ctx, "mod-1", "target", nil, models.BanPermanent, "spam", 0)
	require.NoError(t, err)

	lifted, err := f.svc.UnbanUser(ctx, "mod-1", ban.ID)
	require.NoError(t, err)
	assert.True(t, lifted)
	assert.True(t, f.publisher.has(notifications.EventBanLifted))

	// Already lifted: boolean no-op.
	lifted, err = f.svc.UnbanUser(ctx, "mod-1", ban.ID)
	require.NoError(t, err)
	assert.False(t, lifted)

	// Unknown ban: no-op, not an error.
	lifted, err = f.svc.UnbanUser(ctx, "mod-1", "nope")
	require.NoError(t, err)
	assert.False(t, lifted)
}

func TestIsUserBanned_Scoping(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	communityA := "community-a"

	require.NoError(t, f.bans.Create(ctx, &models.UserBan{
		UserID: "global-target", BanType: models.BanPermanent, IsActive: true,
	}))
	require.NoError(t, f.bans.Create(ctx, &models.UserBan{
		UserID: "scoped-target", CommunityID: &communityA, BanType: models.BanPermanent, IsActive: true,
	}))
	expired := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, f.bans.Create(ctx, &models.UserBan{
		UserID: "expired-target", BanType: models.BanTemporary, ExpiresAt: &expired, IsActive: true,
	}))

	banned, err := f.svc.IsUserBanned(ctx, "global-target", "anywhere")
	require.NoError(t, err)
	assert.True(t, banned)

	banned, err = f.svc.IsUserBanned(ctx, "scoped-target", "community-a")
	require.NoError(t, err)
	assert.True(t, banned)

	banned, err = f.svc.IsUserBanned(ctx, "scoped-target", "community-b")
	require.NoError(t, err)
	assert.False(t, banned)

	// An expired temporary ban no longer blocks, even before the sweep.
	banned, err = f.svc.IsUserBanned(ctx, "expired-target", "anywhere")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestExpireTemporaryBans(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, f.bans.Create(ctx, &models.UserBan{UserID: "a", BanType: models.BanTemporary, ExpiresAt: &past, IsActive: true}))
	require.NoError(t, f.bans.Create(ctx, &models.UserBan{UserID: "b", BanType: models.BanTemporary, ExpiresAt: &future, IsActive: true}))
	require.NoError(t, f.bans.Create(ctx, &models.UserBan{UserID: "c", BanType: models.BanPermanent, IsActive: true}))

	expired, err := f.svc.ExpireTemporaryBans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	active, err := f.bans.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}

func TestReviewAppeal_ApprovalLiftsBan(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("reviewer", "community-a", models.Permission{Action: models.PermHandleAppeals, Scope: models.ScopeGlobal})

	ban := &models.UserBan{UserID: "target", BanType: models.BanPermanent, IsActive: true}
	require.NoError(t, f.bans.Create(ctx, ban))

	appeal, err := f.svc.SubmitAppeal(ctx, "target", models.AppealUserBan, ban.ID, "I did nothing wrong")
	require.NoError(t, err)
	assert.True(t, f.publisher.has(notifications.EventAppealSubmitted))

	decided, err := f.svc.ReviewAppeal(ctx, "reviewer", appeal.ID, true, "ban overturned")
	require.NoError(t, err)
	assert.True(t, decided)

	assert.False(t, ban.IsActive)
	assert.Equal(t, models.AppealApproved, appeal.Status)
	assert.True(t, f.publisher.has(notifications.EventBanLifted))
	assert.True(t, f.publisher.has(notifications.EventAppealDecided))

	// A second review loses the race.
	decided, err = f.svc.ReviewAppeal(ctx, "reviewer", appeal.ID, false, "")
	require.NoError(t, err)
	assert.False(t, decided)
}

func TestReviewAppeal_Authorization(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	appeal, err := f.svc.SubmitAppeal(ctx, "target", models.AppealContentRemoval, "decision-1", "")
	require.NoError(t, err)

	_, err = f.svc.ReviewAppeal(ctx, "nobody", appeal.ID, true, "")
	assertForbidden(t, err)
}

func TestReviewAppeal_ContentRestoreEmitsEvent(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("reviewer", "community-a", models.Permission{Action: models.PermHandleAppeals, Scope: models.ScopeGlobal})

	appeal, err := f.svc.SubmitAppeal(ctx, "author", models.AppealContentRemoval, "decision-1", "fair use")
	require.NoError(t, err)

	decided, err := f.svc.ReviewAppeal(ctx, "reviewer", appeal.ID, true, "restored")
	require.NoError(t, err)
	require.True(t, decided)
	assert.True(t, f.publisher.has(notifications.EventContentRestoreRequest))
}

func TestBulkModerate(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	_, err := f.svc.BulkModerate(ctx, []string{"c1"}, models.ContentTypeComment, false, "nobody", "")
	assertForbidden(t, err)

	f.grant("mod-1", "community-a", models.Permission{Action: models.PermReviewContent, Scope: models.ScopeGlobal})

	require.NoError(t, f.queues.Create(ctx, &models.QueueItem{
		ContentID: "c1", ContentType: models.ContentTypeComment, Status: models.QueuePending, Priority: models.PriorityMedium,
	}))
	require.NoError(t, f.queues.Create(ctx, &models.QueueItem{
		ContentID: "c2", ContentType: models.ContentTypeComment, Status: models.QueuePending, Priority: models.PriorityMedium,
	}))

	// c3 has no open queue item and must fail without aborting the rest.
	result, err := f.svc.BulkModerate(ctx, []string{"c1", "c2", "c3"}, models.ContentTypeComment, false, "mod-1", "bulk sweep")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "c3")

	// Both handled items are completed with a rejection verdict.
	assert.Equal(t, models.QueueCompleted, f.queues.items[0].Status)
	assert.Equal(t, models.QueueCompleted, f.queues.items[1].Status)
	require.Len(t, f.results.results, 2)
	assert.Equal(t, models.StatusRejected, f.results.results[0].Status)
}

func TestBulkModerate_ItemAlreadyClaimed(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()
	f.grant("mod-1", "community-a", models.Permission{Action: models.PermReviewContent, Scope: models.ScopeGlobal})

	other := "other-mod"
	require.NoError(t, f.queues.Create(ctx, &models.QueueItem{
		ContentID: "c1", ContentType: models.ContentTypeComment,
		Status: models.QueueInReview, AssignedTo: &other, Priority: models.PriorityMedium,
	}))

	result, err := f.svc.BulkModerate(ctx, []string{"c1"}, models.ContentTypeComment, true, "mod-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 1, result.Failed)
}

func TestGetModerationDashboard(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	require.NoError(t, f.bans.Create(ctx, &models.UserBan{UserID: "u1", BanType: models.BanPermanent, IsActive: true}))
	require.NoError(t, f.appeals.Create(ctx, &models.Appeal{UserID: "u1", Status: models.AppealPending}))
	require.NoError(t, f.actions.Create(ctx, &models.ModerationAction{ModeratorID: "mod-1", ActionType: models.ActionApprove, TargetType: "comment", TargetID: "c1"}))

	for i := 0; i < 3; i++ {
		require.NoError(t, f.reports.Create(ctx, &models.UserReport{
			ReporterID: "u2", ContentID: fmt.Sprintf("c%d", i), ContentType: models.ContentTypeComment,
			Reason: models.ReasonSpam, Status: models.ReportPending,
		}))
	}
	require.NoError(t, f.reports.Create(ctx, &models.UserReport{
		ReporterID: "u2", ContentID: "c9", ContentType: models.ContentTypeComment,
		Reason: models.ReasonHarassment, Status: models.ReportPending,
	}))

	dashboard, err := f.svc.GetModerationDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), dashboard.ActiveBans)
	assert.Equal(t, int64(1), dashboard.PendingAppeals)
	assert.Equal(t, int64(1), dashboard.ActionsToday)
	assert.Equal(t, int64(1), dashboard.ModeratorActions["mod-1"])
	require.NotEmpty(t, dashboard.TopReportReasons)
	assert.Equal(t, models.ReasonSpam, dashboard.TopReportReasons[0].Reason)
	assert.Equal(t, 3, dashboard.TopReportReasons[0].Count)
}

func TestGetUserModerationHistory(t *testing.T) {
	f := newCommunityFixture()
	ctx := context.Background()

	require.NoError(t, f.bans.Create(ctx, &models.UserBan{UserID: "u1", BanType: models.BanPermanent, IsActive: false}))
	require.NoError(t, f.appeals.Create(ctx, &models.Appeal{UserID: "u1", Status: models.AppealRejected}))
	require.NoError(t, f.actions.Create(ctx, &models.ModerationAction{ModeratorID: "mod-1", ActionType: models.ActionWarnUser, TargetType: "user", TargetID: "u1"}))
	require.NoError(t, f.reports.Create(ctx, &models.UserReport{ReporterID: "u1", ContentID: "c1", ContentType: models.ContentTypeComment, Reason: models.ReasonSpam, Status: models.ReportPending}))

	history, err := f.svc.GetUserModerationHistory(ctx, "u1")
	require.NoError(t, err)

	assert.Len(t, history.Bans, 1)
	assert.Len(t, history.Appeals, 1)
	assert.Len(t, history.Actions, 1)
	assert.Len(t, history.Reports, 1)
}
