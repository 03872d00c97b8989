package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/opsdeck/field-ops-api/api"
	"github.com/opsdeck/field-ops-api/cache"
	"github.com/opsdeck/field-ops-api/config"
	"github.com/opsdeck/field-ops-api/databases"
)

// maxAttachmentBytes caps attachment uploads at 10MB
const maxAttachmentBytes = 10 << 20

// Attachment exported for testing purposes
type Attachment struct {
	DB    databases.MissionDatabase
	Cache *cache.Cache
}

// UploadMissionAttachmentHandler uploads a multipart file to cloudinary and
// stores the resulting URL on the mission
func (a Attachment) UploadMissionAttachmentHandler(w http.ResponseWriter, r *http.Request) {
	missionID := mux.Vars(r)["mission_id"]

	mID, err := primitive.ObjectIDFromHex(missionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("failed to read file from form", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// make sure the mission exists before paying for the upload
	if _, err := a.DB.FindOne(ctx, bson.M{"_id": mID}); err != nil {
		config.ErrorStatus("failed to get mission by ID", http.StatusNotFound, w, err)
		return
	}

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		config.ErrorStatus("failed to initialize cloudinary", http.StatusInternalServerError, w, err)
		return
	}

	uploadResp, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: "mission-attachments/" + missionID,
	})
	if err != nil {
		config.ErrorStatus("failed to upload attachment", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("mission attachment uploaded",
		"missionID", missionID, "filename", header.Filename, "url", uploadResp.SecureURL)

	_, err = a.DB.UpdateOne(ctx, bson.M{"_id": mID}, bson.M{"$push": bson.M{"attachments": uploadResp.SecureURL}})
	if err != nil {
		config.ErrorStatus("failed to save attachment url", http.StatusInternalServerError, w, err)
		return
	}
	a.Cache.Invalidate("missions")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Attachment uploaded successfully",
		"url":     uploadResp.SecureURL,
	})
}
