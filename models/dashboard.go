package models

// DashboardStats aggregates counts across collections for the dashboard
// endpoint. Served from the cache with a short TTL.
type DashboardStats struct {
	ActiveEmployees    int64            `json:"activeEmployees"`
	EmployeesInMission int64            `json:"employeesInMission"`
	MissionsByStatus   map[string]int64 `json:"missionsByStatus"`
	VehiclesByStatus   map[string]int64 `json:"vehiclesByStatus"`
	ToolsTracked       int64            `json:"toolsTracked"`
}
