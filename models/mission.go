package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Mission status values. COMPLETED and CANCELLED are terminal.
const (
	MissionPending    = "PENDING"
	MissionInProgress = "IN_PROGRESS"
	MissionCompleted  = "COMPLETED"
	MissionCancelled  = "CANCELLED"
)

// Mission holds the structure for the missions collection in mongo
type Mission struct {
	ID               primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Title            string              `json:"title" bson:"title"`
	Details          string              `json:"details" bson:"details"`
	Status           string              `json:"status" bson:"status"`
	AssignedTeam     []string            `json:"assignedTeam" bson:"assignedTeam"`
	AssignedPersonID string              `json:"assignedPersonID,omitempty" bson:"assignedPersonID,omitempty"` // Deprecated, use AssignedTeam
	TeamLeaderID     string              `json:"teamLeaderID" bson:"teamLeaderID"`
	VehicleID        string              `json:"vehicleID,omitempty" bson:"vehicleID,omitempty"`
	RequiredTools    []string            `json:"requiredTools" bson:"requiredTools"`
	DueAt            *primitive.DateTime `json:"dueAt,omitempty" bson:"dueAt,omitempty"`
	Notes            []MissionNote       `json:"notes" bson:"notes"`
	Attachments      []string            `json:"attachments" bson:"attachments"`
	CreatedByID      string              `json:"createdByID" bson:"createdByID"`
	CompletedAt      *primitive.DateTime `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CreatedAt        primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt        primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}

// MissionNote holds the notes associated with a mission.
type MissionNote struct {
	ID        string             `json:"_id" bson:"_id"`
	Note      string             `json:"note" bson:"note"`
	CreatedBy string             `json:"createdBy" bson:"createdBy"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedBy string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	UpdatedAt primitive.DateTime `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// TeamSet returns the deduplicated union of the assigned team, the legacy
// singular assignee field and the team leader. Older documents only carry
// assignedPersonID, so all three sources must be merged before any
// assignment or release fan-out.
func (m *Mission) TeamSet() []string {
	seen := make(map[string]struct{})
	var team []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		team = append(team, id)
	}
	for _, id := range m.AssignedTeam {
		add(id)
	}
	add(m.AssignedPersonID)
	add(m.TeamLeaderID)
	return team
}

// Terminal reports whether the mission status is COMPLETED or CANCELLED.
func (m *Mission) Terminal() bool {
	return m.Status == MissionCompleted || m.Status == MissionCancelled
}

// CreateMissionRequest is the payload accepted by the create endpoint.
type CreateMissionRequest struct {
	Title            string   `json:"title" validate:"required"`
	Details          string   `json:"details"`
	Status           string   `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	AssignedTeam     []string `json:"assignedTeam"`
	AssignedPersonID string   `json:"assignedPersonID"`
	TeamLeaderID     string   `json:"teamLeaderID"`
	VehicleID        string   `json:"vehicleID"`
	RequiredTools    []string `json:"requiredTools"`
	DueAt            string   `json:"dueAt"`
}

// MissionStatusRequest is the payload for the status update endpoint.
type MissionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Notes  string `json:"notes"`
}
