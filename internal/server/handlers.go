package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"snapsell/internal/listing"
	"snapsell/internal/marketplace"
	"snapsell/internal/media"
	"snapsell/internal/pricing"
	"snapsell/internal/workflow"
)

const maxUploadSize = 10 << 20 // 10MB per image

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// uploadContentType trusts the part's declared type, falling back to
// sniffing when the client sent nothing useful.
func uploadContentType(declared string, data []byte) string {
	if declared == "" || declared == "application/octet-stream" {
		return http.DetectContentType(data)
	}
	return declared
}

// --- Stateless listing endpoints ---

type processImageResponse struct {
	Success           bool           `json:"success"`
	Message           string         `json:"message"`
	ImageURL          string         `json:"imageUrl"`
	ProcessedImageURL string         `json:"processedImageUrl"`
	Metadata          media.Metadata `json:"metadata"`
}

func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("failed to read uploaded image")
		writeError(w, http.StatusInternalServerError, "Error processing image")
		return
	}

	result, err := s.deps.Processor.Process(data, uploadContentType(header.Header.Get("Content-Type"), data))
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG, and WebP are supported.")
		return
	case errors.Is(err, media.ErrNoData):
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	case err != nil:
		log.Error().Err(err).Msg("failed to process image")
		writeError(w, http.StatusInternalServerError, "Error processing image")
		return
	}

	writeJSON(w, http.StatusOK, processImageResponse{
		Success:           true,
		Message:           "Image processed successfully",
		ImageURL:          result.ImageURL,
		ProcessedImageURL: result.ProcessedImageURL,
		Metadata:          result.Metadata,
	})
}

type generateListingRequest struct {
	ImageURL   string `json:"imageUrl"`
	ObjectType string `json:"objectType"`
}

type generateListingResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Listing listing.Draft `json:"listing"`
}

func (s *Server) handleGenerateListing(w http.ResponseWriter, r *http.Request) {
	if s.cfg.GeminiAPIKey == "" {
		log.Error().Msg("Gemini API key is not configured")
		writeError(w, http.StatusInternalServerError, "Gemini API key is not configured")
		return
	}

	var req generateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "Image URL is required")
		return
	}

	draft, err := s.deps.Generator.GenerateListing(r.Context(), req.ImageURL, req.ObjectType)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate listing")
		writeError(w, http.StatusInternalServerError, "Error generating listing")
		return
	}

	writeJSON(w, http.StatusOK, generateListingResponse{
		Success: true,
		Message: "Listing generated successfully",
		Listing: *draft,
	})
}

type pricingDataRequest struct {
	ItemType string   `json:"itemType"`
	Keywords []string `json:"keywords"`
}

type pricingDataResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Pricing pricing.Estimate `json:"pricing"`
}

func (s *Server) handlePricingData(w http.ResponseWriter, r *http.Request) {
	var req pricingDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ItemType == "" {
		writeError(w, http.StatusBadRequest, "Item type is required")
		return
	}

	estimate := s.deps.Estimator.Estimate(req.ItemType, req.Keywords)
	writeJSON(w, http.StatusOK, pricingDataResponse{
		Success: true,
		Message: "Pricing data retrieved successfully",
		Pricing: estimate,
	})
}

type postListingRequest struct {
	Marketplace string              `json:"marketplace"`
	Listing     *marketplaceListing `json:"listing"`
}

type marketplaceListing struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
	Keywords    []string `json:"keywords"`
}

type postListingResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ListingURL string `json:"listingUrl,omitempty"`
	ListingID  string `json:"listingId,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (s *Server) handlePostListing(w http.ResponseWriter, r *http.Request) {
	var req postListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Marketplace == "" || req.Listing == nil {
		writeError(w, http.StatusBadRequest, "Marketplace and listing data are required")
		return
	}

	result := s.deps.Poster.Post(req.Marketplace, marketplace.Listing{
		Title:       req.Listing.Title,
		Description: req.Listing.Description,
		Price:       req.Listing.Price,
		Condition:   req.Listing.Condition,
		Images:      req.Listing.Images,
		Keywords:    req.Listing.Keywords,
	})

	// An unsupported marketplace is a soft failure carried in the payload.
	writeJSON(w, http.StatusOK, postListingResponse{
		Success:    result.Success,
		Message:    result.Message,
		ListingURL: result.ListingURL,
		ListingID:  result.ListingID,
		Status:     result.Status,
	})
}

// --- Workflow session endpoints ---

type sessionResponse struct {
	Success bool              `json:"success"`
	Session workflow.Snapshot `json:"session"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	id := r.URL.Query().Get(":id")
	session, ok := s.deps.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return session, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, session *workflow.Session) {
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, Session: session.Snapshot()})
}

// writeWorkflowError maps workflow errors onto the HTTP boundary:
// validation and sequencing problems become 400s with the state machine's
// own notice left queued on the session, anything else a generic 500.
func writeWorkflowError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, workflow.ErrNoPhotos):
		writeError(w, http.StatusBadRequest, "At least one photo is required")
	case errors.Is(err, workflow.ErrNoMarketplaces):
		writeError(w, http.StatusBadRequest, "At least one marketplace is required")
	case errors.Is(err, workflow.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "Price cannot be negative")
	case errors.Is(err, workflow.ErrWrongStep), errors.Is(err, workflow.ErrNoItem):
		writeError(w, http.StatusBadRequest, "Operation not allowed in the current workflow step")
	default:
		log.Error().Err(err).Msg("workflow operation failed")
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := s.deps.Sessions.Create()
	writeJSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		SessionID string `json:"sessionId"`
	}{Success: true, SessionID: session.ID()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, session)
}

func (s *Server) handleSessionPhotos(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4*maxUploadSize)
	var photos []workflow.Photo
	if err := r.ParseMultipartForm(maxUploadSize); err == nil {
		for _, header := range r.MultipartForm.File["photos"] {
			file, err := header.Open()
			if err != nil {
				log.Error().Err(err).Str("file", header.Filename).Msg("failed to open uploaded photo")
				writeError(w, http.StatusInternalServerError, "Error processing image")
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				log.Error().Err(err).Str("file", header.Filename).Msg("failed to read uploaded photo")
				writeError(w, http.StatusInternalServerError, "Error processing image")
				return
			}
			photos = append(photos, workflow.Photo{
				Data:        data,
				ContentType: uploadContentType(header.Header.Get("Content-Type"), data),
			})
		}
	}

	// An unparseable or empty form submits zero photos so the state machine
	// raises its own validation notice.
	if err := session.SubmitPhotos(r.Context(), photos); err != nil {
		writeWorkflowError(w, err, "Error processing image")
		return
	}
	s.writeSnapshot(w, session)
}

func (s *Server) handleSessionEdit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var edit workflow.ItemEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := session.EditItem(edit); err != nil {
		writeWorkflowError(w, err, "Error updating listing")
		return
	}
	s.writeSnapshot(w, session)
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Next(); err != nil {
		writeWorkflowError(w, err, "Error advancing workflow")
		return
	}
	s.writeSnapshot(w, session)
}

func (s *Server) handleSessionBack(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Back(); err != nil {
		writeWorkflowError(w, err, "Error reversing workflow")
		return
	}
	s.writeSnapshot(w, session)
}

type publishRequest struct {
	Marketplaces []string `json:"marketplaces"`
}

type publishResponse struct {
	Success bool              `json:"success"`
	Item    workflow.Item     `json:"item"`
	Session workflow.Snapshot `json:"session"`
}

func (s *Server) handleSessionPublish(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	item, err := session.Publish(r.Context(), req.Marketplaces)
	if err != nil {
		writeWorkflowError(w, err, "Error posting to marketplaces")
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{
		Success: true,
		Item:    *item,
		Session: session.Snapshot(),
	})
}

// --- Publish history ---

type historyEntry struct {
	ItemID      string    `json:"itemId"`
	ItemName    string    `json:"itemName"`
	Marketplace string    `json:"marketplace"`
	Success     bool      `json:"success"`
	ListingURL  string    `json:"listingUrl,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries := []historyEntry{}
	if s.deps.Store != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		records, err := s.deps.Store.GetPublishHistory(limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to load publish history")
			writeError(w, http.StatusInternalServerError, "Error retrieving publish history")
			return
		}
		for _, rec := range records {
			entries = append(entries, historyEntry{
				ItemID:      rec.ItemID,
				ItemName:    rec.ItemName,
				Marketplace: rec.Marketplace,
				Success:     rec.Success,
				ListingURL:  rec.ListingURL,
				Status:      rec.Status,
				CreatedAt:   rec.CreatedAt,
			})
		}
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		History []historyEntry `json:"history"`
	}{Success: true, History: entries})
}
