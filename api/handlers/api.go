package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/api"
	"github.com/opsdeck/field-ops-api/api/scheduler"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
	"github.com/opsdeck/field-ops-api/models"
)

// validate checks request payloads against the struct tags in models
var validate = validator.New()

// App stores the router, db connection, cache and event hub so they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Cache     *cache.Cache
	Hub       *api.EventHub
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewEmployeeDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	e := Employee{DB: databases.NewEmployeeDatabase(a.dbHelper), Cache: a.Cache}
	v := Vehicle{DB: databases.NewVehicleDatabase(a.dbHelper), Cache: a.Cache}
	t := Tool{DB: databases.NewToolDatabase(a.dbHelper), Cache: a.Cache}
	d := Department{DB: databases.NewDepartmentDatabase(a.dbHelper), Cache: a.Cache}
	mission := Mission{
		DB:              databases.NewMissionDatabase(a.dbHelper),
		EDB:             databases.NewEmployeeDatabase(a.dbHelper),
		VDB:             databases.NewVehicleDatabase(a.dbHelper),
		TDB:             databases.NewToolDatabase(a.dbHelper),
		TADB:            databases.NewToolAssignmentDatabase(a.dbHelper),
		VADB:            databases.NewVehicleAssignmentDatabase(a.dbHelper),
		LDB:             databases.NewActivityLogDatabase(a.dbHelper),
		Cache:           a.Cache,
		Hub:             a.Hub,
		ReleaseOnCancel: a.Config.ReleaseOnCancel,
	}
	activity := Activity{DB: databases.NewActivityLogDatabase(a.dbHelper)}
	dashboard := Dashboard{
		EDB:   databases.NewEmployeeDatabase(a.dbHelper),
		VDB:   databases.NewVehicleDatabase(a.dbHelper),
		TDB:   databases.NewToolDatabase(a.dbHelper),
		MDB:   databases.NewMissionDatabase(a.dbHelper),
		Cache: a.Cache,
	}
	attachment := Attachment{DB: databases.NewMissionDatabase(a.dbHelper), Cache: a.Cache}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", api.MetricsHandler())

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/refresh", http.HandlerFunc(m.RefreshToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/employee/register", http.HandlerFunc(e.RegisterEmployeeHandler)).Methods("POST")
	apiCreate.Handle("/employee/check-username", http.HandlerFunc(e.CheckUsernameHandler)).Methods("POST")
	apiCreate.Handle("/employee/{employee_id}", api.Middleware(http.HandlerFunc(e.EmployeeByIDHandler))).Methods("GET")
	apiCreate.Handle("/employee/{employee_id}", api.Middleware(http.HandlerFunc(e.UpdateEmployeeHandler))).Methods("PUT")
	apiCreate.Handle("/employee/{employee_id}", api.Middleware(http.HandlerFunc(e.DeactivateEmployeeHandler))).Methods("DELETE")
	apiCreate.Handle("/employees", api.Middleware(http.HandlerFunc(e.EmployeeHandler))).Methods("GET")
	apiCreate.Handle("/employees/department/{department_id}", api.Middleware(http.HandlerFunc(e.EmployeesByDepartmentIDHandler))).Methods("GET")

	apiCreate.Handle("/vehicle", api.Middleware(http.HandlerFunc(v.CreateVehicleHandler))).Methods("POST")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.VehicleByIDHandler))).Methods("GET")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.UpdateVehicleHandler))).Methods("PUT")
	apiCreate.Handle("/vehicle/{vehicle_id}", api.Middleware(http.HandlerFunc(v.DeleteVehicleHandler))).Methods("DELETE")
	apiCreate.Handle("/vehicle/{vehicle_id}/status", api.Middleware(http.HandlerFunc(v.UpdateVehicleStatusHandler))).Methods("PUT")
	apiCreate.Handle("/vehicles", api.Middleware(http.HandlerFunc(v.VehicleHandler))).Methods("GET")
	apiCreate.Handle("/vehicles/status/{status}", api.Middleware(http.HandlerFunc(v.VehiclesByStatusHandler))).Methods("GET")
	apiCreate.Handle("/vehicles/search", api.Middleware(http.HandlerFunc(v.VehiclesByPlateSearchHandler))).Methods("GET")

	apiCreate.Handle("/tool", api.Middleware(http.HandlerFunc(t.CreateToolHandler))).Methods("POST")
	apiCreate.Handle("/tool/{tool_id}", api.Middleware(http.HandlerFunc(t.ToolByIDHandler))).Methods("GET")
	apiCreate.Handle("/tool/{tool_id}", api.Middleware(http.HandlerFunc(t.UpdateToolHandler))).Methods("PUT")
	apiCreate.Handle("/tool/{tool_id}", api.Middleware(http.HandlerFunc(t.DeleteToolHandler))).Methods("DELETE")
	apiCreate.Handle("/tool/{tool_id}/adjust", api.Middleware(http.HandlerFunc(t.AdjustToolHandler))).Methods("PUT")
	apiCreate.Handle("/tools", api.Middleware(http.HandlerFunc(t.ToolHandler))).Methods("GET")

	apiCreate.Handle("/department", api.Middleware(http.HandlerFunc(d.CreateDepartmentHandler))).Methods("POST")
	apiCreate.Handle("/department/{department_id}", api.Middleware(http.HandlerFunc(d.DepartmentByIDHandler))).Methods("GET")
	apiCreate.Handle("/department/{department_id}", api.Middleware(http.HandlerFunc(d.UpdateDepartmentHandler))).Methods("PUT")
	apiCreate.Handle("/department/{department_id}", api.Middleware(http.HandlerFunc(d.DeleteDepartmentHandler))).Methods("DELETE")
	apiCreate.Handle("/departments", api.Middleware(http.HandlerFunc(d.DepartmentHandler))).Methods("GET")

	apiCreate.Handle("/missions", api.Middleware(http.HandlerFunc(mission.CreateMissionHandler))).Methods("POST")
	apiCreate.Handle("/missions", api.Middleware(http.HandlerFunc(mission.MissionHandler))).Methods("GET")
	apiCreate.Handle("/missions/employee/{employee_id}", api.Middleware(http.HandlerFunc(mission.MissionsByEmployeeIDHandler))).Methods("GET")
	apiCreate.Handle("/mission/{mission_id}", api.Middleware(http.HandlerFunc(mission.MissionByIDHandler))).Methods("GET")
	apiCreate.Handle("/mission/{mission_id}/status", api.Middleware(http.HandlerFunc(mission.UpdateMissionStatusHandler))).Methods("PUT")
	apiCreate.Handle("/mission/{mission_id}/assignments", api.Middleware(http.HandlerFunc(mission.MissionAssignmentsHandler))).Methods("GET")
	apiCreate.Handle("/mission/{mission_id}/note", api.Middleware(http.HandlerFunc(mission.AddMissionNoteHandler))).Methods("POST")
	apiCreate.Handle("/mission/{mission_id}/note/{note_id}", api.Middleware(http.HandlerFunc(mission.EditMissionNoteHandler))).Methods("PUT")
	apiCreate.Handle("/mission/{mission_id}/note/{note_id}", api.Middleware(http.HandlerFunc(mission.DeleteMissionNoteHandler))).Methods("DELETE")
	apiCreate.Handle("/mission/{mission_id}/attachment", api.Middleware(http.HandlerFunc(attachment.UploadMissionAttachmentHandler))).Methods("POST")

	apiCreate.Handle("/activity", api.Middleware(http.HandlerFunc(activity.ActivityHandler))).Methods("GET")

	apiCreate.Handle("/dashboard/stats", api.Middleware(http.HandlerFunc(dashboard.StatsHandler))).Methods("GET")

	if a.Hub != nil {
		apiCreate.HandleFunc("/events", a.Hub.HandleWS)
	}

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("field-ops-api has connected to the database")

	if os.Getenv("SECRET_KEY") == "" {
		return fmt.Errorf("secret key is not set")
	}

	a.Cache = cache.New()
	a.Hub = api.NewEventHub()

	a.Scheduler = scheduler.NewScheduler(
		databases.NewMissionDatabase(a.dbHelper),
		databases.NewEmployeeDatabase(a.dbHelper),
		databases.NewVehicleDatabase(a.dbHelper),
		databases.NewActivityLogDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// broadcast pushes a mission event to the hub if one is attached
func broadcast(hub *api.EventHub, eventType, missionID, status string) {
	if hub == nil {
		return
	}
	hub.Broadcast(api.MissionEvent{
		Type:      eventType,
		MissionID: missionID,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}
