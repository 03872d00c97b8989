package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
	templates "github.com/opsdeck/field-ops-api/templates/html"
)

// Scheduler handles periodic background jobs for mission and vehicle upkeep
type Scheduler struct {
	cron       *cron.Cron
	MDB        databases.MissionDatabase
	EDB        databases.EmployeeDatabase
	VDB        databases.VehicleDatabase
	LDB        databases.ActivityLogDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	mDB databases.MissionDatabase,
	eDB databases.EmployeeDatabase,
	vDB databases.VehicleDatabase,
	lDB databases.ActivityLogDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		MDB:        mDB,
		EDB:        eDB,
		VDB:        vDB,
		LDB:        lDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Flag overdue missions and nag the team leader hourly
	_, err := s.cron.AddFunc("0 * * * *", s.processOverdueMissions)
	if err != nil {
		zap.S().Errorw("failed to register overdue mission job", "error", err)
	}

	// Pull vehicles due for service out of the pool daily at 4 AM UTC
	_, err = s.cron.AddFunc("0 4 * * *", s.processVehicleMaintenance)
	if err != nil {
		zap.S().Errorw("failed to register vehicle maintenance job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Field ops scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Field ops scheduler stopped")
}

// processOverdueMissions finds missions past their due date that are still
// open, records the fact in the activity log and emails the team leader. Each
// mission is only flagged once.
func (s *Scheduler) processOverdueMissions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "overdue_mission_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for overdue mission job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Overdue mission job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "overdue_mission_job", s.instanceID)

	now := time.Now()

	zap.S().Infow("Running overdue mission job", "instance", s.instanceID)

	overdue, err := s.MDB.Find(ctx, bson.M{
		"status":            bson.M{"$in": []string{models.MissionPending, models.MissionInProgress}},
		"dueAt":             bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
		"overdueNotifiedAt": nil, // haven't flagged this one yet
	})
	if err != nil {
		zap.S().Errorw("failed to find overdue missions", "error", err)
		return
	}

	for _, mission := range overdue {
		s.flagOverdueMission(ctx, mission, now)
	}

	zap.S().Infow("Overdue mission job complete", "flagged", len(overdue))
}

func (s *Scheduler) flagOverdueMission(ctx context.Context, mission models.Mission, now time.Time) {
	missionID := mission.ID.Hex()

	hoursOverdue := 0
	if mission.DueAt != nil {
		hoursOverdue = int(now.Sub(mission.DueAt.Time()).Hours())
	}

	if err := s.LDB.Append(ctx, models.ActivityMissionOverdue, map[string]interface{}{
		"missionID":    missionID,
		"title":        mission.Title,
		"hoursOverdue": hoursOverdue,
	}, "scheduler"); err != nil {
		zap.S().Errorw("failed to append activity log", "missionID", missionID, "error", err)
	}

	if mission.TeamLeaderID != "" {
		go s.sendOverdueEmail(ctx, mission, hoursOverdue)
	}

	_, err := s.MDB.UpdateOne(ctx, bson.M{"_id": mission.ID}, bson.M{
		"$set": bson.M{"overdueNotifiedAt": primitive.NewDateTimeFromTime(now)},
	})
	if err != nil {
		zap.S().Errorw("failed to mark mission as notified", "missionID", missionID, "error", err)
	}

	zap.S().Infow("Flagged overdue mission", "missionID", missionID, "hoursOverdue", hoursOverdue)
}

// processVehicleMaintenance moves vehicles whose service date has passed out
// of the available pool so they cannot be assigned to new missions.
func (s *Scheduler) processVehicleMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (15 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "vehicle_maintenance_job", s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for vehicle maintenance job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Vehicle maintenance job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "vehicle_maintenance_job", s.instanceID)

	now := time.Now()

	zap.S().Infow("Running vehicle maintenance job", "instance", s.instanceID)

	// only AVAILABLE vehicles are swept; a vehicle on a mission stays
	// IN_USE until the mission releases it
	due, err := s.VDB.Find(ctx, bson.M{
		"status":        models.VehicleAvailable,
		"nextServiceAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)},
	})
	if err != nil {
		zap.S().Errorw("failed to find vehicles due for service", "error", err)
		return
	}

	for _, vehicle := range due {
		vehicleID := vehicle.ID.Hex()
		if err := s.VDB.SetStatus(ctx, vehicleID, models.VehicleMaintenance, nil); err != nil {
			zap.S().Errorw("failed to move vehicle to maintenance", "vehicleID", vehicleID, "error", err)
			continue
		}
		if err := s.LDB.Append(ctx, models.ActivityVehicleMaintenance, map[string]interface{}{
			"vehicleID":   vehicleID,
			"plateNumber": vehicle.PlateNumber,
		}, "scheduler"); err != nil {
			zap.S().Errorw("failed to append activity log", "vehicleID", vehicleID, "error", err)
		}
		zap.S().Infow("Moved vehicle to maintenance", "vehicleID", vehicleID, "plate", vehicle.PlateNumber)
	}

	zap.S().Infow("Vehicle maintenance job complete", "moved", len(due))
}

// --- Email Helper Functions ---

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("OpsDeck Field Operations", "no-reply@opsdeck.io")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}

func (s *Scheduler) sendOverdueEmail(ctx context.Context, mission models.Mission, hoursOverdue int) {
	leaderID, err := primitive.ObjectIDFromHex(mission.TeamLeaderID)
	if err != nil {
		zap.S().Warnw("mission has malformed team leader id", "missionID", mission.ID.Hex(), "error", err)
		return
	}

	leader, err := s.EDB.FindOne(ctx, bson.M{"_id": leaderID})
	if err != nil || leader.Email == "" {
		return
	}

	subject := fmt.Sprintf("Mission Overdue: %s", mission.Title)
	htmlContent := templates.RenderMissionOverdueEmail(leader.FullName, mission.Title, hoursOverdue)
	plainText := fmt.Sprintf("The mission %q is %d hour(s) past its due date and is still open.", mission.Title, hoursOverdue)

	if err := s.sendEmail(leader.Email, leader.FullName, subject, htmlContent, plainText); err != nil {
		zap.S().Errorw("failed to send overdue mission email", "error", err, "missionID", mission.ID.Hex())
	}
}
