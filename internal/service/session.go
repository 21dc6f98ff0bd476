package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/repository"
)

type SessionService struct {
	sessions repository.SessionTimeLogRepository
	users    repository.UserRepository
	engine   *attendance.Engine
	clock    Clock
	logger   *logrus.Logger
}

func NewSessionService(
	sessions repository.SessionTimeLogRepository,
	users repository.UserRepository,
	policy attendance.Policy,
	clock Clock,
	logger *logrus.Logger,
) *SessionService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		engine:   attendance.NewEngine(policy),
		clock:    clock,
		logger:   newLogger(logger),
	}
}

// roleCommand описание одной отметки роли
type roleCommand struct {
	name     string
	role     models.Role
	apply    func(models.SessionTimeLog, time.Time) (models.SessionTimeLog, error)
	column   string
	requires string
	duration string
}

func (s *SessionService) commands() map[string]roleCommand {
	return map[string]roleCommand{
		"reached": {
			name: "therapist_mark_reached", role: models.RoleTherapist,
			apply: s.engine.TherapistMarkReached, column: "therapist_reached_time",
		},
		"leaving": {
			name: "therapist_mark_leaving", role: models.RoleTherapist,
			apply: s.engine.TherapistMarkLeaving, column: "therapist_leaving_time",
			requires: "therapist_reached_time", duration: "therapist_duration_minutes",
		},
		"arrival": {
			name: "patient_confirm_arrival", role: models.RolePatient,
			apply: s.engine.PatientConfirmArrival, column: "patient_confirmed_arrival",
		},
		"departure": {
			name: "patient_confirm_departure", role: models.RolePatient,
			apply: s.engine.PatientConfirmDeparture, column: "patient_confirmed_departure",
			requires: "patient_confirmed_arrival", duration: "patient_confirmed_duration_minutes",
		},
	}
}

func (s *SessionService) today() time.Time {
	return models.StartOfDay(s.clock.Now().In(s.engine.Policy().Zone()))
}

// ScheduleSession создает учет визита для назначенного приема
func (s *SessionService) ScheduleSession(caller *models.User, appointmentID, therapistID, patientID uint, date time.Time) (*models.SessionTimeLog, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	if err := s.checkParticipant(therapistID, models.RoleTherapist); err != nil {
		return nil, err
	}
	if err := s.checkParticipant(patientID, models.RolePatient); err != nil {
		return nil, err
	}

	log, err := s.engine.NewSession(appointmentID, therapistID, patientID, date)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(&log); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":     log.ID,
		"appointment_id": appointmentID,
		"therapist_id":   therapistID,
		"date":           log.ScheduledDate,
	}).Info("Session scheduled")
	return &log, nil
}

func (s *SessionService) checkParticipant(id uint, role models.Role) error {
	user, err := s.users.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", id, err)
	}
	if user == nil || user.Role != role {
		return apperror.Validation("participant_role_mismatch", "user %d is not a %s", id, role)
	}
	return nil
}

// GetTodaySessions визиты на сегодня в проекции роли вызывающего
func (s *SessionService) GetTodaySessions(caller *models.User) ([]attendance.SessionView, error) {
	if caller == nil {
		return nil, apperror.Forbidden("caller_required", "caller identity is required")
	}
	date := models.DateKey(s.today())

	var (
		logs []models.SessionTimeLog
		err  error
	)
	switch caller.Role {
	case models.RoleTherapist:
		logs, err = s.sessions.ListByTherapistAndDate(caller.ID, date)
	case models.RolePatient:
		logs, err = s.sessions.ListByPatientAndDate(caller.ID, date)
	case models.RoleAdmin:
		logs, err = s.sessions.ListByDate(date)
	default:
		return nil, apperror.Forbidden("role_required", "unknown role %s", caller.Role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return attendance.ProjectAll(logs, caller.Role), nil
}

// GetSession один визит в проекции роли
func (s *SessionService) GetSession(caller *models.User, sessionID uint) (*attendance.SessionView, error) {
	log, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := canView(caller, log); err != nil {
		return nil, err
	}
	view := attendance.Project(*log, caller.Role)
	return &view, nil
}

func canView(caller *models.User, log *models.SessionTimeLog) error {
	switch {
	case caller == nil:
		return apperror.Forbidden("caller_required", "caller identity is required")
	case caller.IsAdmin(),
		caller.IsTherapist() && log.TherapistID == caller.ID,
		caller.IsPatient() && log.PatientID == caller.ID:
		return nil
	}
	return apperror.Forbidden("session_access_denied", "session %d belongs to another user", log.ID)
}

func (s *SessionService) TherapistMarkReached(caller *models.User, sessionID uint) (*models.SessionTimeLog, error) {
	return s.mark(caller, sessionID, s.commands()["reached"])
}

func (s *SessionService) TherapistMarkLeaving(caller *models.User, sessionID uint) (*models.SessionTimeLog, error) {
	return s.mark(caller, sessionID, s.commands()["leaving"])
}

func (s *SessionService) PatientConfirmArrival(caller *models.User, sessionID uint) (*models.SessionTimeLog, error) {
	return s.mark(caller, sessionID, s.commands()["arrival"])
}

func (s *SessionService) PatientConfirmDeparture(caller *models.User, sessionID uint) (*models.SessionTimeLog, error) {
	return s.mark(caller, sessionID, s.commands()["departure"])
}

// mark применяет отметку роли: проверка команды на текущей записи, условная
// запись одного поля, затем пересчет статуса и расхождения по свежей записи.
func (s *SessionService) mark(caller *models.User, sessionID uint, cmd roleCommand) (*models.SessionTimeLog, error) {
	logger := s.logger.WithFields(logrus.Fields{
		"command":    cmd.name,
		"session_id": sessionID,
	})

	if err := requireRole(caller, cmd.role); err != nil {
		return nil, err
	}

	log, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if log == nil {
		return nil, s.missingSession(caller, sessionID)
	}
	if err := s.checkOwner(caller, log); err != nil {
		return nil, err
	}
	if err := s.checkTrackable(log); err != nil {
		logger.WithError(err).Warn("Session is not trackable today")
		return nil, err
	}

	now := s.clock.Now()
	updated, err := cmd.apply(*log, now)
	if err != nil {
		logger.WithError(err).Warn("Session command rejected")
		return nil, err
	}

	update := repository.RoleFieldUpdate{
		Column:         cmd.column,
		Value:          now,
		Requires:       cmd.requires,
		DurationColumn: cmd.duration,
	}
	switch cmd.duration {
	case "therapist_duration_minutes":
		update.Duration = updated.TherapistDurationMinutes
	case "patient_confirmed_duration_minutes":
		update.Duration = updated.PatientConfirmedDurationMinutes
	}

	applied, err := s.sessions.ApplyRoleField(log.ID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", cmd.name, err)
	}
	if !applied {
		return nil, s.classifyLostUpdate(log.ID, cmd, now)
	}

	fresh, err := s.sessions.GetByID(log.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	derived := s.engine.Refresh(*fresh)
	if err := s.sessions.ApplyDerived(&derived); err != nil {
		return nil, fmt.Errorf("failed to store derived session state: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"status":          derived.Status,
		"has_discrepancy": derived.HasDiscrepancy,
	}).Info("Session command applied")
	return &derived, nil
}

// classifyLostUpdate условная запись не прошла: повторяем команду на свежей
// записи, чтобы вернуть ту же ошибку, что дала бы последовательная обработка
func (s *SessionService) classifyLostUpdate(id uint, cmd roleCommand, now time.Time) error {
	current, err := s.sessions.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to reload session: %w", err)
	}
	if current == nil {
		return apperror.NotFound("session_not_found", "session %d not found", id)
	}
	if _, err := cmd.apply(*current, now); err != nil {
		return err
	}
	return apperror.Conflict("concurrent_update", "session %d was modified concurrently", id)
}

// missingSession визита нет. Для терапевта без приемов на сегодня это ошибка
// правила дня, а не отсутствующая запись.
func (s *SessionService) missingSession(caller *models.User, sessionID uint) error {
	if caller.IsTherapist() {
		count, err := s.sessions.CountByTherapistAndDate(caller.ID, models.DateKey(s.today()))
		if err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}
		if count == 0 {
			ctx := attendance.DayContext{Date: s.today(), Today: s.today()}
			if err := attendance.Validate(ctx, attendance.Submission{Action: attendance.ActionTrackSession}); err != nil {
				return err
			}
		}
	}
	return apperror.NotFound("session_not_found", "session %d not found", sessionID)
}

// checkTrackable отметки ставятся только в день визита
func (s *SessionService) checkTrackable(log *models.SessionTimeLog) error {
	date, err := models.ParseDate(log.ScheduledDate, s.engine.Policy().Zone())
	if err != nil {
		return fmt.Errorf("session %d has invalid date: %w", log.ID, err)
	}
	ctx := attendance.DayContext{
		Date:            date,
		Today:           s.today(),
		Weekend:         s.engine.Policy().IsNonWorkingWeekday(date.Weekday()),
		HasAppointments: true,
	}
	return attendance.Validate(ctx, attendance.Submission{Action: attendance.ActionTrackSession})
}

func (s *SessionService) checkOwner(caller *models.User, log *models.SessionTimeLog) error {
	switch {
	case caller.IsTherapist() && log.TherapistID == caller.ID:
		return nil
	case caller.IsPatient() && log.PatientID == caller.ID:
		return nil
	}
	return apperror.Forbidden("session_access_denied", "session %d belongs to another user", log.ID)
}

// ResolveDiscrepancy администратор закрывает расхождение визита
func (s *SessionService) ResolveDiscrepancy(caller *models.User, sessionID uint) (*models.SessionTimeLog, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	log, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resolved, err := s.engine.ResolveDiscrepancy(*log, caller.ID, now)
	if err != nil {
		return nil, err
	}

	applied, err := s.sessions.MarkResolved(&resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve discrepancy: %w", err)
	}
	if !applied {
		current, err := s.load(sessionID)
		if err != nil {
			return nil, err
		}
		if _, err := s.engine.ResolveDiscrepancy(*current, caller.ID, now); err != nil {
			return nil, err
		}
		return nil, apperror.Conflict("concurrent_update", "session %d was modified concurrently", sessionID)
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"admin_id":   caller.ID,
		"minutes":    resolved.DiscrepancyMinutes,
	}).Info("Session discrepancy resolved")
	return &resolved, nil
}

// ListDiscrepancies визиты с расхождением, для администратора
func (s *SessionService) ListDiscrepancies(caller *models.User, unresolvedOnly bool) ([]models.SessionTimeLog, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	logs, err := s.sessions.ListDiscrepancies(unresolvedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list discrepancies: %w", err)
	}
	return logs, nil
}

func (s *SessionService) load(sessionID uint) (*models.SessionTimeLog, error) {
	log, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if log == nil {
		return nil, apperror.NotFound("session_not_found", "session %d not found", sessionID)
	}
	return log, nil
}
