package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-membership/internal/apperr"
	"github.com/diewo77/go-membership/internal/files"
	"github.com/diewo77/go-membership/internal/fsm"
	"github.com/diewo77/go-membership/internal/metrics"
	"github.com/diewo77/go-membership/internal/models"
	"github.com/diewo77/go-membership/internal/validation"
)

// ApplicationEvent is a review action on a membership application.
type ApplicationEvent string

const (
	EventStartReview               ApplicationEvent = "start_review"
	EventAskApplicantForInfo       ApplicationEvent = "ask_applicant_for_info"
	EventCancelWaitingForApplicant ApplicationEvent = "cancel_waiting_for_applicant"
	EventIsReadyForReview          ApplicationEvent = "is_ready_for_review"
	EventAccept                    ApplicationEvent = "accept"
	EventReject                    ApplicationEvent = "reject"
)

// transition is the subject the state machine works on: the application
// plus the transaction the event runs in.
type transition struct {
	app *models.MembershipApplication
	tx  *gorm.DB
	// blob keys to remove from the file store once the transaction commits
	blobs []string
}

type ApplicationInput struct {
	UserID              uint
	CompanyNumber       string
	PhoneNumber         string
	ContactEmail        string
	BusinessCategoryIDs []uint
}

// WaitingInfo says why an application waits on the applicant.
type WaitingInfo struct {
	ReasonID   *uint
	CustomText string
}

type ApplicationService struct {
	db        *gorm.DB
	companies *CompanyService
	store     files.Store
	log       logrus.FieldLogger
	machine   *fsm.Machine[models.ApplicationState, ApplicationEvent, *transition]
}

func NewApplicationService(db *gorm.DB, companies *CompanyService, store files.Store, log logrus.FieldLogger) *ApplicationService {
	s := &ApplicationService{db: db, companies: companies, store: store, log: log}
	s.machine = s.buildMachine()
	return s
}

func (s *ApplicationService) buildMachine() *fsm.Machine[models.ApplicationState, ApplicationEvent, *transition] {
	m := fsm.New[models.ApplicationState, ApplicationEvent, *transition](
		models.StateNew,
		func(t *transition) models.ApplicationState { return t.app.State },
		func(t *transition, st models.ApplicationState) { t.app.State = st },
	)
	m.On(EventStartReview,
		fsm.Transition[models.ApplicationState, *transition]{
			From:  []models.ApplicationState{models.StateNew},
			To:    models.StateUnderReview,
			Guard: applicantNotMember,
		},
		fsm.Transition[models.ApplicationState, *transition]{
			From: []models.ApplicationState{models.StateReadyForReview},
			To:   models.StateUnderReview,
		},
	)
	m.On(EventAskApplicantForInfo, fsm.Transition[models.ApplicationState, *transition]{
		From: []models.ApplicationState{models.StateUnderReview},
		To:   models.StateWaitingForApplicant,
	})
	m.On(EventCancelWaitingForApplicant, fsm.Transition[models.ApplicationState, *transition]{
		From: []models.ApplicationState{models.StateWaitingForApplicant},
		To:   models.StateUnderReview,
	})
	m.On(EventIsReadyForReview, fsm.Transition[models.ApplicationState, *transition]{
		From: []models.ApplicationState{models.StateWaitingForApplicant},
		To:   models.StateReadyForReview,
	})
	m.On(EventAccept, fsm.Transition[models.ApplicationState, *transition]{
		From:  []models.ApplicationState{models.StateUnderReview, models.StateRejected},
		To:    models.StateAccepted,
		After: s.linkCompany,
	})
	m.On(EventReject, fsm.Transition[models.ApplicationState, *transition]{
		From:  []models.ApplicationState{models.StateUnderReview, models.StateAccepted},
		To:    models.StateRejected,
		After: s.clearMembership,
	})
	return m
}

// Events lists every review event in table order.
func (s *ApplicationService) Events() []ApplicationEvent {
	return s.machine.Events()
}

// ParseEvent validates an event name.
func (s *ApplicationService) ParseEvent(name string) (ApplicationEvent, bool) {
	for _, ev := range s.machine.Events() {
		if string(ev) == name {
			return ev, true
		}
	}
	return "", false
}

func applicantNotMember(ctx context.Context, t *transition) (bool, string) {
	var u models.User
	if err := t.tx.WithContext(ctx).Select("id", "member").First(&u, t.app.UserID).Error; err != nil {
		return false, "guard.user_missing"
	}
	if u.Member {
		return false, "guard.already_member"
	}
	return true, ""
}

func (s *ApplicationService) linkCompany(ctx context.Context, t *transition) error {
	c, created, err := s.companies.FindOrCreate(ctx, t.tx, t.app.CompanyNumber, t.app.ContactEmail)
	if err != nil {
		return err
	}
	t.app.CompanyID = &c.ID
	t.app.Company = c
	if err := t.tx.WithContext(ctx).Model(&models.MembershipApplication{}).
		Where("id = ?", t.app.ID).
		Update("company_id", c.ID).Error; err != nil {
		return fmt.Errorf("link company: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"application_id": t.app.ID,
		"company_id":     c.ID,
		"created":        created,
	}).Info("application linked to company")
	return nil
}

func (s *ApplicationService) clearMembership(ctx context.Context, t *transition) error {
	tx := t.tx.WithContext(ctx)
	if err := tx.Model(&models.User{}).Where("id = ?", t.app.UserID).
		Update("membership_number", nil).Error; err != nil {
		return fmt.Errorf("clear membership number: %w", err)
	}
	keys, err := deleteUploadedFiles(tx, t.app.ID)
	if err != nil {
		return err
	}
	t.blobs = append(t.blobs, keys...)
	t.app.UploadedFiles = nil
	return nil
}

// deleteUploadedFiles removes the file records of an application and
// returns the storage keys of their blobs.
func deleteUploadedFiles(tx *gorm.DB, appID uint) ([]string, error) {
	var uploaded []models.UploadedFile
	if err := tx.Where("membership_application_id = ?", appID).Find(&uploaded).Error; err != nil {
		return nil, fmt.Errorf("load uploaded files: %w", err)
	}
	if len(uploaded) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(uploaded))
	for _, f := range uploaded {
		keys = append(keys, f.StorageKey)
	}
	if err := tx.Where("membership_application_id = ?", appID).Delete(&models.UploadedFile{}).Error; err != nil {
		return nil, fmt.Errorf("delete uploaded files: %w", err)
	}
	return keys, nil
}

func persistState(ctx context.Context, t *transition) error {
	return t.tx.WithContext(ctx).Model(t.app).
		Select("State", "WaitingReasonID", "CustomReasonText").
		Updates(t.app).Error
}

// Fire runs event on application id. The state change and its side effects
// commit together or not at all.
func (s *ApplicationService) Fire(ctx context.Context, id uint, event ApplicationEvent) (*models.MembershipApplication, error) {
	return s.fire(ctx, id, event, nil)
}

// AskForInfo fires ask_applicant_for_info and records why. A custom reason
// needs its free text.
func (s *ApplicationService) AskForInfo(ctx context.Context, id uint, info WaitingInfo) (*models.MembershipApplication, error) {
	return s.fire(ctx, id, EventAskApplicantForInfo, func(tx *gorm.DB, app *models.MembershipApplication) error {
		v := validation.Violations{}
		if info.ReasonID != nil {
			var reason models.WaitingReason
			if err := tx.First(&reason, *info.ReasonID).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				v.Add("waiting_reason_id", validation.CodeNotIncluded)
			} else if reason.IsCustom {
				validation.Required("custom_reason_text", info.CustomText, v)
			}
		}
		if !v.Empty() {
			return apperr.Validation(v)
		}
		app.WaitingReasonID = info.ReasonID
		app.CustomReasonText = strings.TrimSpace(info.CustomText)
		return nil
	})
}

func (s *ApplicationService) fire(ctx context.Context, id uint, event ApplicationEvent, prepare func(*gorm.DB, *models.MembershipApplication) error) (*models.MembershipApplication, error) {
	var app models.MembershipApplication
	var blobs []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&app, id).Error; err != nil {
			return notFound(err, "membership application")
		}
		if _, ok := s.machine.Target(app.State, event); !ok {
			return apperr.InvalidTransition(string(event), string(app.State))
		}
		if prepare != nil {
			if err := prepare(tx, &app); err != nil {
				return err
			}
		}
		t := &transition{app: &app, tx: tx}
		if _, err := s.machine.Fire(ctx, t, event, persistState); err != nil {
			return err
		}
		blobs = t.blobs
		return nil
	})

	entry := s.log.WithFields(logrus.Fields{"application_id": id, "event": event})
	if err != nil {
		metrics.RecordTransition(string(event), string(apperr.CodeOf(err)))
		entry.WithError(err).Info("application event refused")
		return nil, err
	}
	metrics.RecordTransition(string(event), "ok")
	entry.WithField("state", app.State).Info("application event fired")

	s.removeBlobs(ctx, blobs)
	return &app, nil
}

// removeBlobs deletes stored files whose records are already gone. A
// failure leaves an orphaned blob behind, which is logged but not fatal.
func (s *ApplicationService) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.WithError(err).WithField("storage_key", key).Warn("could not delete uploaded file blob")
		}
	}
}

// Permitted lists the events that may fire on app right now.
func (s *ApplicationService) Permitted(ctx context.Context, app *models.MembershipApplication) []ApplicationEvent {
	cp := *app
	return s.machine.Permitted(ctx, &transition{app: &cp, tx: s.db})
}

// Submit validates and creates a new application in state "new".
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (*models.MembershipApplication, error) {
	db := s.db.WithContext(ctx)
	in.CompanyNumber = strings.TrimSpace(in.CompanyNumber)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)

	v := validation.Violations{}
	if in.UserID == 0 {
		v.Add("user_id", validation.CodeRequired)
	}
	validation.Required("company_number", in.CompanyNumber, v)
	validation.OrgNumber("company_number", in.CompanyNumber, v)
	validation.Required("contact_email", in.ContactEmail, v)
	validation.Email("contact_email", in.ContactEmail, v)

	if !v.Has("company_number") && in.UserID != 0 {
		var n int64
		if err := db.Model(&models.MembershipApplication{}).
			Where("user_id = ? AND company_number = ?", in.UserID, in.CompanyNumber).
			Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			v.Add("company_number", validation.CodeTaken)
		}
	}

	var categories []models.BusinessCategory
	if len(in.BusinessCategoryIDs) > 0 {
		if err := db.Find(&categories, in.BusinessCategoryIDs).Error; err != nil {
			return nil, err
		}
		if len(categories) != len(uniqueIDs(in.BusinessCategoryIDs)) {
			v.Add("business_category_ids", validation.CodeNotIncluded)
		}
	}
	if !v.Empty() {
		return nil, apperr.Validation(v)
	}

	app := models.MembershipApplication{
		UserID:             in.UserID,
		CompanyNumber:      in.CompanyNumber,
		PhoneNumber:        strings.TrimSpace(in.PhoneNumber),
		ContactEmail:       in.ContactEmail,
		State:              s.machine.Initial(),
		BusinessCategories: categories,
	}
	if err := db.Create(&app).Error; err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.log.WithFields(logrus.Fields{"application_id": app.ID, "user_id": app.UserID}).Info("application submitted")
	return &app, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Get loads an application with its user, company, files, categories and
// waiting reason.
func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.MembershipApplication, error) {
	var app models.MembershipApplication
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Company").
		Preload("UploadedFiles").
		Preload("BusinessCategories").
		Preload("WaitingReason").
		First(&app, id).Error
	if err != nil {
		return nil, notFound(err, "membership application")
	}
	return &app, nil
}

// List returns all applications, newest first. With openOnly set, decided
// (accepted or rejected) applications are left out.
func (s *ApplicationService) List(ctx context.Context, openOnly bool) ([]models.MembershipApplication, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if openOnly {
		q = q.Where("state NOT IN ?", []models.ApplicationState{models.StateAccepted, models.StateRejected})
	}
	var apps []models.MembershipApplication
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// AttachFile stores r and records it as a supporting file of application id.
func (s *ApplicationService) AttachFile(ctx context.Context, id uint, name, contentType string, r io.Reader) (*models.UploadedFile, error) {
	var app models.MembershipApplication
	if err := s.db.WithContext(ctx).Select("id").First(&app, id).Error; err != nil {
		return nil, notFound(err, "membership application")
	}
	key, size, err := s.store.Put(ctx, r)
	if err != nil {
		return nil, err
	}
	f := models.UploadedFile{
		MembershipApplicationID: id,
		FileName:                name,
		ContentType:             contentType,
		FileSize:                size,
		StorageKey:              key,
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		s.removeBlobs(ctx, []string{key})
		return nil, fmt.Errorf("record uploaded file: %w", err)
	}
	return &f, nil
}

// Delete removes an application with its files. When the application is
// the last one linked to its company, the company goes too; a company
// shared with other applications is kept.
func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	var blobs []string
	var companyDeleted *uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.MembershipApplication
		if err := tx.First(&app, id).Error; err != nil {
			return notFound(err, "membership application")
		}

		keys, err := deleteUploadedFiles(tx, app.ID)
		if err != nil {
			return err
		}
		blobs = keys

		lastForCompany := false
		if app.CompanyID != nil {
			n, err := s.companies.ApplicationCount(ctx, tx, *app.CompanyID)
			if err != nil {
				return err
			}
			lastForCompany = n == 1
		}

		if err := tx.Model(&app).Association("BusinessCategories").Clear(); err != nil {
			return fmt.Errorf("detach categories: %w", err)
		}
		if err := tx.Delete(&app).Error; err != nil {
			return fmt.Errorf("delete application: %w", err)
		}

		if lastForCompany {
			if err := s.companies.delete(ctx, tx, *app.CompanyID); err != nil {
				return err
			}
			companyDeleted = app.CompanyID
		}
		return nil
	})
	if err != nil {
		return err
	}

	entry := s.log.WithField("application_id", id)
	if companyDeleted != nil {
		entry = entry.WithField("company_id", *companyDeleted)
	}
	entry.Info("application deleted")
	s.removeBlobs(ctx, blobs)
	return nil
}
