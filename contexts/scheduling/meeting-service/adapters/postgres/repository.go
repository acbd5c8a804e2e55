package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hireloop/contexts/scheduling/meeting-service/domain/entities"
	domainerrors "hireloop/contexts/scheduling/meeting-service/domain/errors"
	"hireloop/contexts/scheduling/meeting-service/ports"
	"hireloop/internal/shared/events"
	"hireloop/internal/shared/idempotency"
	"hireloop/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository implements the meeting ports on postgres. Transitions run inside
// a transaction with SELECT ... FOR UPDATE and re-check the current status, so
// a racing transition loses with ErrInvalidTransition instead of clobbering.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateMeeting(ctx context.Context, meeting entities.Meeting, participants []entities.Participant, event entities.MeetingEvent) error {
	row, err := meetingModelFromEntity(meeting)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidMeetingInput
			}
			return err
		}
		for _, participant := range participants {
			participantRow := participantModelFromEntity(participant)
			if err := tx.Create(&participantRow).Error; err != nil {
				return err
			}
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) GetMeeting(ctx context.Context, meetingID string) (entities.Meeting, error) {
	var row meetingModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Meeting{}, domainerrors.ErrMeetingNotFound
		}
		return entities.Meeting{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetMeetingByRoomName(ctx context.Context, roomName string) (entities.Meeting, error) {
	var row meetingModel
	err := r.db.WithContext(ctx).
		Where("provider_room_name = ?", strings.TrimSpace(roomName)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Meeting{}, domainerrors.ErrMeetingNotFound
		}
		return entities.Meeting{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListMeetings(ctx context.Context, filter ports.MeetingFilter) ([]entities.Meeting, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 25
	}

	tx := r.db.WithContext(ctx).
		Model(&meetingModel{}).
		Where("organization_id = ?", strings.TrimSpace(filter.OrganizationID))
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []meetingModel
	if err := tx.Order("created_at DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.Meeting, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) ListParticipants(ctx context.Context, meetingID string) ([]entities.Participant, error) {
	var rows []participantModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AcceptMeeting(ctx context.Context, meetingID string, slot entities.Slot, reminders []entities.ReminderJob, event entities.MeetingEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if row.Status != string(entities.MeetingStatusPending) {
			return domainerrors.ErrInvalidTransition
		}

		start := slot.StartsAt.UTC()
		end := slot.EndsAt.UTC()
		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Updates(map[string]any{
				"status":               string(entities.MeetingStatusAccepted),
				"confirmed_slot_start": start,
				"confirmed_slot_end":   end,
				"updated_at":           event.CreatedAt.UTC(),
			}).Error; err != nil {
			return err
		}

		for _, job := range reminders {
			reminderRow := reminderModelFromEntity(job)
			if err := tx.Create(&reminderRow).Error; err != nil {
				return err
			}
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) DenyMeeting(ctx context.Context, meetingID string, reason string, event entities.MeetingEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if row.Status != string(entities.MeetingStatusPending) {
			return domainerrors.ErrInvalidTransition
		}

		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Updates(map[string]any{
				"status":      string(entities.MeetingStatusDenied),
				"deny_reason": strings.TrimSpace(reason),
				"updated_at":  event.CreatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) RescheduleMeeting(ctx context.Context, meetingID string, toStatus entities.MeetingStatus, slots []entities.Slot, record entities.RescheduleRecord, event entities.MeetingEvent) error {
	slotsRaw, err := slotsToJSON(slots)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if isTerminalStatus(row.Status) {
			return domainerrors.ErrInvalidTransition
		}

		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Updates(map[string]any{
				"status":               string(toStatus),
				"proposed_slots":       slotsRaw,
				"confirmed_slot_start": nil,
				"confirmed_slot_end":   nil,
				"updated_at":           event.CreatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		if err := cancelRemindersTx(tx, row.MeetingID, event.CreatedAt); err != nil {
			return err
		}

		recordSlots, err := slotsToJSON(record.ProposedSlots)
		if err != nil {
			return err
		}
		rescheduleRow := rescheduleModel{
			RecordID:      strings.TrimSpace(record.RecordID),
			MeetingID:     row.MeetingID,
			RescheduledBy: strings.TrimSpace(record.RescheduledBy),
			Reason:        strings.TrimSpace(record.Reason),
			ProposedSlots: recordSlots,
			CreatedAt:     record.CreatedAt.UTC(),
		}
		if err := tx.Create(&rescheduleRow).Error; err != nil {
			return err
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) EndMeeting(ctx context.Context, meetingID string, endedAt time.Time, event entities.MeetingEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if isTerminalStatus(row.Status) {
			return domainerrors.ErrInvalidTransition
		}

		timestamp := endedAt.UTC()
		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Updates(map[string]any{
				"status":     string(entities.MeetingStatusCompleted),
				"ended_at":   timestamp,
				"updated_at": timestamp,
			}).Error; err != nil {
			return err
		}
		if err := cancelRemindersTx(tx, row.MeetingID, timestamp); err != nil {
			return err
		}
		return appendEventTx(tx, event)
	})
}

func (r *Repository) StartMeeting(ctx context.Context, meetingID string, event entities.MeetingEvent) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if row.Status != string(entities.MeetingStatusPending) && row.Status != string(entities.MeetingStatusRescheduled) {
			return nil
		}

		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Updates(map[string]any{
				"status":     string(entities.MeetingStatusAccepted),
				"updated_at": event.CreatedAt.UTC(),
			}).Error; err != nil {
			return err
		}
		applied = true
		return appendEventTx(tx, event)
	})
	return applied, err
}

func (r *Repository) AssignRoomName(ctx context.Context, meetingID string, roomName string) (string, error) {
	assigned := ""
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockMeetingTx(tx, meetingID)
		if err != nil {
			return err
		}
		if row.ProviderRoomName != nil && *row.ProviderRoomName != "" {
			assigned = *row.ProviderRoomName
			return nil
		}

		name := strings.TrimSpace(roomName)
		if err := tx.Model(&meetingModel{}).
			Where("meeting_id = ?", row.MeetingID).
			Update("provider_room_name", name).
			Error; err != nil {
			return err
		}
		assigned = name
		return nil
	})
	return assigned, err
}

func (r *Repository) UpdateAttendance(ctx context.Context, meetingID string, userID string, attendance entities.AttendanceStatus, at time.Time) error {
	timestamp := at.UTC()
	updates := map[string]any{
		"attendance_status": string(attendance),
		"updated_at":        timestamp,
	}
	switch attendance {
	case entities.AttendanceJoined:
		updates["joined_at"] = timestamp
	case entities.AttendanceLeft:
		updates["left_at"] = timestamp
	}

	return r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("meeting_id = ? AND user_id = ?", strings.TrimSpace(meetingID), strings.TrimSpace(userID)).
		Updates(updates).
		Error
}

func (r *Repository) SaveRoomToken(ctx context.Context, token entities.RoomToken) error {
	row := roomTokenModel{
		TokenID:   strings.TrimSpace(token.TokenID),
		MeetingID: strings.TrimSpace(token.MeetingID),
		UserID:    strings.TrimSpace(token.UserID),
		Token:     strings.TrimSpace(token.Token),
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: token.CreatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) AppendEvent(ctx context.Context, event entities.MeetingEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendEventTx(tx, event)
	})
}

func (r *Repository) ListEvents(ctx context.Context, meetingID string) ([]entities.MeetingEvent, error) {
	var rows []meetingEventModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.MeetingEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListReminders(ctx context.Context, meetingID string) ([]entities.ReminderJob, error) {
	var rows []reminderModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Order("remind_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.ReminderJob, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			ID:         row.OutboxID,
			EventType:  row.EventType,
			Payload:    append([]byte(nil), row.Payload...),
			Status:     row.Status,
			RetryCount: row.RetryCount,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, messageID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(messageID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
}

// PutIfAbsent makes the repository double as the durable webhook ledger: a
// conditional insert on the event key is the exactly-once decision point.
// A row past its retention window is cleared first so a fresh claim can land.
func (r *Repository) PutIfAbsent(ctx context.Context, record idempotency.Record, now time.Time) (bool, idempotency.Record, error) {
	row := eventLedgerModel{
		Key:         strings.TrimSpace(record.Key),
		Fingerprint: record.Fingerprint,
		ExpiresAt:   record.ExpiresAt.UTC(),
		ProcessedAt: now.UTC(),
	}
	if err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at < ?", row.Key, now.UTC()).
		Delete(&eventLedgerModel{}).
		Error; err != nil {
		return false, idempotency.Record{}, err
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, idempotency.Record{}, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return true, idempotency.Record{}, nil
	}

	var existing eventLedgerModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return false, idempotency.Record{}, err
	}
	return false, idempotency.Record{
		Key:         existing.Key,
		Fingerprint: existing.Fingerprint,
		ExpiresAt:   existing.ExpiresAt.UTC(),
	}, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (idempotency.Record, bool, error) {
	var row eventLedgerModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		return idempotency.Record{}, false, nil
	}
	return idempotency.Record{
		Key:         row.Key,
		Fingerprint: row.Fingerprint,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

// Delete releases a ledger claim whose reconciliation failed, so the
// provider's redelivery can process the event instead of being absorbed.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		Delete(&eventLedgerModel{}).
		Error
}

func lockMeetingTx(tx *gorm.DB, meetingID string) (meetingModel, error) {
	var row meetingModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return meetingModel{}, domainerrors.ErrMeetingNotFound
		}
		return meetingModel{}, err
	}
	return row, nil
}

func cancelRemindersTx(tx *gorm.DB, meetingID string, at time.Time) error {
	return tx.Model(&reminderModel{}).
		Where("meeting_id = ? AND status = ?", meetingID, string(entities.ReminderStatusScheduled)).
		Updates(map[string]any{
			"status":     string(entities.ReminderStatusCancelled),
			"updated_at": at.UTC(),
		}).
		Error
}

func appendEventTx(tx *gorm.DB, event entities.MeetingEvent) error {
	eventRow, err := meetingEventModelFromEntity(event)
	if err != nil {
		return err
	}
	if err := tx.Create(&eventRow).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(events.Envelope{
		EventID:        event.EventID,
		EventType:      string(event.EventType),
		SourceService:  "meeting-service",
		OccurredAtUTC:  event.CreatedAt.UTC(),
		CorrelationID:  event.CorrelationID,
		EntityType:     "meeting",
		EntityID:       event.MeetingID,
		PayloadVersion: 1,
		Payload:        event.Payload,
	})
	if err != nil {
		return err
	}
	outboxRow := outboxModel{
		OutboxID:  eventRow.EventID,
		EventType: eventRow.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: eventRow.CreatedAt,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&outboxRow).Error
}

func isTerminalStatus(status string) bool {
	switch entities.MeetingStatus(status) {
	case entities.MeetingStatusDenied, entities.MeetingStatusCompleted, entities.MeetingStatusCancelled:
		return true
	default:
		return false
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
