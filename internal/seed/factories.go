// Package seed provides helpers to create demo moderation data for
// development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gatekeeper/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions tune how much and what kind of data the factory produces.
type SeedOptions struct {
	NumQueueItems int
	NumReports    int
	NumModerators int
	NumBans       int
	NumAppeals    int
	MaxDays       int
	DryRun        bool
}

// Factory builds moderation entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	r    *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for seeding
	return &Factory{db: db, opts: opts, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

var (
	contentTypes = []models.ContentType{
		models.ContentTypeResource, models.ContentTypeMessage,
		models.ContentTypeProfile, models.ContentTypeComment,
	}
	reportReasons = []models.ReportReason{
		models.ReasonInappropriate, models.ReasonSpam, models.ReasonHarassment,
		models.ReasonCopyright, models.ReasonOther,
	}
	flagTypes = []models.FlagType{
		models.FlagInappropriateLanguage, models.FlagSpam, models.FlagHarassment,
		models.FlagMisinformation, models.FlagAdultContent, models.FlagViolence,
	}
	severities = []models.Severity{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical,
	}
)

// spreadBack returns a timestamp up to MaxDays in the past so seeded data
// does not all land on "now".
func (f *Factory) spreadBack() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.r.Intn(maxDays))*24*time.Hour +
		time.Duration(f.r.Intn(24))*time.Hour +
		time.Duration(f.r.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) randomFlag(detectedBy models.DetectionSource) models.ModerationFlag {
	return models.ModerationFlag{
		Type:        flagTypes[f.r.Intn(len(flagTypes))],
		Severity:    severities[f.r.Intn(len(severities))],
		Confidence:  0.3 + f.r.Float64()*0.7,
		Description: gofakeit.Sentence(6),
		DetectedBy:  detectedBy,
		CreatedAt:   time.Now(),
	}
}

// CreateQueueItem constructs and persists a pending queue item with one or
// two automated flags. Optional overrides modify it before saving.
func (f *Factory) CreateQueueItem(overrides ...func(*models.QueueItem)) (*models.QueueItem, error) {
	item := &models.QueueItem{
		ContentID:   gofakeit.UUID(),
		ContentType: contentTypes[f.r.Intn(len(contentTypes))],
		Priority:    []models.QueuePriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}[f.r.Intn(3)],
		Status:      models.QueuePending,
		Flags:       []models.ModerationFlag{f.randomFlag(models.DetectedByAutomated)},
		CreatedAt:   f.spreadBack(),
	}
	if f.r.Float64() < 0.3 {
		item.Flags = append(item.Flags, f.randomFlag(models.DetectedByAutomated))
	}
	for _, override := range overrides {
		override(item)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateQueueItem: %s/%s", item.ContentID, item.ContentType)
		return item, nil
	}
	if err := f.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// CreateReport constructs and persists a user report, optionally attached
// to an existing queue item.
func (f *Factory) CreateReport(item *models.QueueItem, overrides ...func(*models.UserReport)) (*models.UserReport, error) {
	report := &models.UserReport{
		ReporterID:  gofakeit.UUID(),
		ContentID:   gofakeit.UUID(),
		ContentType: contentTypes[f.r.Intn(len(contentTypes))],
		Reason:      reportReasons[f.r.Intn(len(reportReasons))],
		Description: gofakeit.Sentence(10),
		Status:      models.ReportPending,
		CreatedAt:   f.spreadBack(),
	}
	if item != nil {
		report.ContentID = item.ContentID
		report.ContentType = item.ContentType
		report.QueueItemID = &item.ID
	}
	for _, override := range overrides {
		override(report)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateReport: %s (%s)", report.ContentID, report.Reason)
		return report, nil
	}
	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// CreateModerator constructs and persists an active community moderator
// with the standard review permissions.
func (f *Factory) CreateModerator(communityID string, overrides ...func(*models.CommunityModerator)) (*models.CommunityModerator, error) {
	mod := &models.CommunityModerator{
		UserID:      gofakeit.UUID(),
		CommunityID: communityID,
		Role:        models.RoleModerator,
		Permissions: []models.Permission{
			{Action: models.PermReviewContent, Scope: models.ScopeCommunity},
			{Action: models.PermViewDashboard, Scope: models.ScopeCommunity},
			{Action: models.PermBanUsers, Scope: models.ScopeCommunity},
		},
		IsActive:    true,
		AppointedBy: gofakeit.UUID(),
	}
	for _, override := range overrides {
		override(mod)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateModerator: %s in %s", mod.UserID, mod.CommunityID)
		return mod, nil
	}
	if err := f.db.Create(mod).Error; err != nil {
		return nil, err
	}
	return mod, nil
}

// CreateBan constructs and persists a ban issued by the given moderator.
// Roughly half the bans are temporary with a future expiry.
func (f *Factory) CreateBan(bannedBy string, overrides ...func(*models.UserBan)) (*models.UserBan, error) {
	ban := &models.UserBan{
		UserID:   gofakeit.UUID(),
		BanType:  models.BanPermanent,
		Reason:   gofakeit.Sentence(8),
		BannedBy: bannedBy,
		IsActive: true,
	}
	if f.r.Float64() < 0.5 {
		ban.BanType = models.BanTemporary
		expires := time.Now().Add(time.Duration(1+f.r.Intn(168)) * time.Hour)
		ban.ExpiresAt = &expires
	}
	if f.r.Float64() < 0.6 {
		community := fmt.Sprintf("community-%d", f.r.Intn(5))
		ban.CommunityID = &community
	}
	for _, override := range overrides {
		override(ban)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateBan: %s (%s)", ban.UserID, ban.BanType)
		return ban, nil
	}
	if err := f.db.Create(ban).Error; err != nil {
		return nil, err
	}
	return ban, nil
}

// CreateAppeal constructs and persists a pending appeal contesting the
// given decision.
func (f *Factory) CreateAppeal(decisionID string, overrides ...func(*models.Appeal)) (*models.Appeal, error) {
	appeal := &models.Appeal{
		UserID:             gofakeit.UUID(),
		Type:               []models.AppealType{models.AppealContentRemoval, models.AppealUserBan, models.AppealAccountSuspension}[f.r.Intn(3)],
		OriginalDecisionID: decisionID,
		Reason:             gofakeit.Paragraph(1, 2, 8, " "),
		Status:             models.AppealPending,
	}
	for _, override := range overrides {
		override(appeal)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateAppeal: %s (%s)", appeal.OriginalDecisionID, appeal.Type)
		return appeal, nil
	}
	if err := f.db.Create(appeal).Error; err != nil {
		return nil, err
	}
	return appeal, nil
}

// CreateResult constructs and persists an automated screening result.
func (f *Factory) CreateResult(overrides ...func(*models.ContentModerationResult)) (*models.ContentModerationResult, error) {
	status := []models.ModerationStatus{
		models.StatusApproved, models.StatusApproved, models.StatusFlagged,
		models.StatusPendingReview, models.StatusRejected,
	}[f.r.Intn(5)]

	result := &models.ContentModerationResult{
		ContentID:   gofakeit.UUID(),
		ContentType: contentTypes[f.r.Intn(len(contentTypes))],
		Status:      status,
		CreatedAt:   f.spreadBack(),
	}
	if status != models.StatusApproved {
		result.Flags = []models.ModerationFlag{f.randomFlag(models.DetectedByAutomated)}
		result.Confidence = result.Flags[0].Confidence
	}
	for _, override := range overrides {
		override(result)
	}
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateResult: %s (%s)", result.ContentID, result.Status)
		return result, nil
	}
	if err := f.db.Create(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
