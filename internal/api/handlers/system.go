package handlers

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/cryptoinsight/backend/internal/api/response"
	"github.com/cryptoinsight/backend/internal/database"
)

// AppVersion is the reported application version. Overridable at build time
// via -ldflags "-X .../handlers.AppVersion=v1.2.3".
var AppVersion = "dev"

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	db *sql.DB
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *sql.DB) *SystemHandler {
	return &SystemHandler{
		db: db,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := database.HealthCheck(h.db); err != nil {
		resp := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}
		response.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp := HealthResponse{
		Status:   "healthy",
		Database: "connected",
	}
	response.RespondJSON(w, http.StatusOK, resp)
}

// VersionResponse represents the version check response
type VersionResponse struct {
	AppVersion string `json:"appVersion"`
	DbVersion  string `json:"dbVersion"`
}

// Version reports the application version and the applied schema version
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionResponse
// Error: 500 Internal Server Error if the schema version cannot be read
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	dbVersion, err := database.Version(h.db)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to read schema version", err.Error())
		return
	}

	resp := VersionResponse{
		AppVersion: AppVersion,
		DbVersion:  fmt.Sprintf("%d", dbVersion),
	}
	response.RespondJSON(w, http.StatusOK, resp)
}
