package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sentimen/internal/analytics"
	"sentimen/internal/classifier"
	"sentimen/internal/config"
	"sentimen/internal/domain"
	"sentimen/internal/scraper"
	"sentimen/internal/storage/sqlite"
	"sentimen/internal/training"
)

// CommentSource is the comment scraping adapter the scrape and battle
// endpoints pull from. Nil when no API key is configured.
type CommentSource interface {
	FetchComments(ctx context.Context, videoURL string, limit int) ([]string, error)
}

// Handlers holds the wired collaborators for every endpoint.
type Handlers struct {
	cfg        config.Config
	db         *sql.DB
	classifier *classifier.Handle
	source     CommentSource
	trainer    *training.Controller
	aggregator *analytics.Aggregator
	comparator *analytics.Comparator
	words      *analytics.WordFrequency
}

func NewHandlers(
	cfg config.Config,
	db *sql.DB,
	cls *classifier.Handle,
	source CommentSource,
	trainer *training.Controller,
	aggregator *analytics.Aggregator,
	comparator *analytics.Comparator,
	words *analytics.WordFrequency,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		db:         db,
		classifier: cls,
		source:     source,
		trainer:    trainer,
		aggregator: aggregator,
		comparator: comparator,
		words:      words,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"status": "error", "message": message})
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// Classify handles a single text item: validation, classification, aspect
// classification, and an optimistic best-effort history write.
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TextInput string `json:"text_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Request body tidak valid")
		return
	}

	text := strings.TrimSpace(body.TextInput)
	if text == "" {
		respondError(w, http.StatusBadRequest, "Teks tidak boleh kosong")
		return
	}
	length := utf8.RuneCountInString(text)
	if length < h.cfg.MinTextLength {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Teks terlalu pendek (minimal %d karakter)", h.cfg.MinTextLength))
		return
	}
	if length > h.cfg.MaxTextLength {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Teks terlalu panjang (maksimal %d karakter)", h.cfg.MaxTextLength))
		return
	}

	pred, err := h.classifier.Classify(r.Context(), text)
	if err != nil {
		log.Printf("classify error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	aspects, err := h.classifier.ClassifyAspects(r.Context(), text)
	if err != nil {
		log.Printf("classify aspects error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	if aspects == nil {
		aspects = []domain.AspectSentiment{}
	}

	// History persistence never fails the classification response.
	if uid := userID(r); uid != "" {
		_, err := sqlite.InsertAnalysis(h.db, domain.Analysis{
			UserID:     uid,
			Text:       text,
			Sentiment:  pred.Label,
			Confidence: pred.Confidence,
		})
		if err != nil {
			log.Printf("failed to save analysis history: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"sentiment":   pred.Label,
		"confidence":  pred.Confidence,
		"aspects":     aspects,
		"text_length": length,
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// productStatsView flattens an entity group to the historical wire shape:
// the three label counts at the top level next to the totals.
type productStatsView struct {
	domain.LabelCounts
	Total       int `json:"total"`
	PositivePct int `json:"positive_pct"`
	NegativePct int `json:"negative_pct"`
}

// BatchClassify ingests a CSV upload and runs the batch aggregation,
// grouped by product when a product column is present.
func (h *Handlers) BatchClassify(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "File must be CSV")
		return
	}

	records, err := parseBatchCSV(file)
	if err != nil {
		if errors.Is(err, errNoTextColumn) {
			respondError(w, http.StatusBadRequest, "Could not find a text column in the file")
			return
		}
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Error reading file: %v", err))
		return
	}

	result, err := h.aggregator.Run(r.Context(), records)
	if err != nil {
		log.Printf("batch classify error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	response := map[string]any{
		"status":       "success",
		"results":      nonNilRecords(result.Records),
		"stats":        result.Counts,
		"total":        len(result.Records),
		"filename":     header.Filename,
		"has_products": result.HasEntities,
	}
	if result.HasEntities {
		stats := make(map[string]productStatsView, len(result.Groups))
		for _, g := range result.Groups {
			stats[g.Name] = productStatsView{
				LabelCounts: g.Counts,
				Total:       g.Total,
				PositivePct: g.PositivePct,
				NegativePct: g.NegativePct,
			}
		}
		response["product_stats"] = stats
		response["insights"] = result.Insights
	}
	respondJSON(w, http.StatusOK, response)
}

// Scrape fetches a video's comments and runs the reduced aggregation.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusServiceUnavailable, "Comment scraping is not configured")
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.URL) == "" {
		respondError(w, http.StatusBadRequest, "URL is required")
		return
	}

	comments, err := h.source.FetchComments(r.Context(), body.URL, h.cfg.ScrapeCommentLimit)
	if err != nil || len(comments) == 0 {
		if err != nil && !errors.Is(err, scraper.ErrCommentsUnavailable) {
			log.Printf("scrape error: %v", err)
		}
		respondError(w, http.StatusBadRequest, "Could not fetch comments. Check if the video has comments enabled.")
		return
	}

	records := make([]analytics.BatchRecord, len(comments))
	for i, comment := range comments {
		records[i] = analytics.BatchRecord{Text: comment}
	}
	result, err := h.aggregator.Run(r.Context(), records)
	if err != nil {
		log.Printf("scrape classify error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"results": nonNilRecords(result.Records),
		"stats":   result.Counts,
		"total":   len(result.Records),
	})
}

// BrandBattle compares the comment sentiment of two videos.
func (h *Handlers) BrandBattle(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusServiceUnavailable, "Comment scraping is not configured")
		return
	}

	var body struct {
		URLA string `json:"url_a"`
		URLB string `json:"url_b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil ||
		strings.TrimSpace(body.URLA) == "" || strings.TrimSpace(body.URLB) == "" {
		respondError(w, http.StatusBadRequest, "Both URLs are required")
		return
	}

	commentsA, errA := h.source.FetchComments(r.Context(), body.URLA, h.cfg.BattleCommentLimit)
	commentsB, errB := h.source.FetchComments(r.Context(), body.URLB, h.cfg.BattleCommentLimit)
	if errA != nil || errB != nil || len(commentsA) == 0 || len(commentsB) == 0 {
		for _, err := range []error{errA, errB} {
			if err != nil && !errors.Is(err, scraper.ErrCommentsUnavailable) {
				log.Printf("battle fetch error: %v", err)
			}
		}
		respondError(w, http.StatusBadRequest, "Failed to fetch comments for one or both videos")
		return
	}

	result, err := h.comparator.Compare(r.Context(), commentsA, commentsB)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			respondError(w, http.StatusUnprocessableEntity, "Not enough usable comments to compare these videos")
			return
		}
		log.Printf("battle error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"brand_a": result.BrandA,
		"brand_b": result.BrandB,
		"verdict": result.Verdict,
	})
}

// History returns one page of the caller's analysis history, newest first.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)

	items, total, err := sqlite.GetHistory(h.db, uid, page, perPage)
	if err != nil {
		log.Printf("history error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	if items == nil {
		items = []domain.Analysis{}
	}

	pages := (total + perPage - 1) / perPage
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"history":      items,
		"total":        total,
		"pages":        pages,
		"current_page": page,
	})
}

// Feedback records a user's correction label for one of their analyses.
func (h *Handlers) Feedback(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid analysis id")
		return
	}

	var body struct {
		Correction string `json:"correction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Request body tidak valid")
		return
	}
	correction, ok := domain.ParseLabel(body.Correction)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid correction label")
		return
	}

	analysis, err := sqlite.GetAnalysisByID(h.db, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Analysis not found")
			return
		}
		log.Printf("feedback lookup error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	if analysis.UserID != uid {
		respondError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	if err := sqlite.UpdateCorrection(h.db, id, correction); err != nil {
		log.Printf("feedback update error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	analysis.Correction = correction

	log.Printf("feedback received analysis=%d correction=%s", id, correction)
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "Feedback saved",
		"analysis": analysis,
	})
}

// Trend returns the caller's 7-day sentiment trend in the parallel-array
// shape charting layers consume.
func (h *Handlers) Trend(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	now := time.Now()
	events, err := sqlite.TrendEvents(h.db, uid, now.AddDate(0, 0, -7))
	if err != nil {
		log.Printf("trend error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, analytics.BuildTrend(events, now))
}

func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	counts, err := sqlite.SummaryCounts(h.db, uid)
	if err != nil {
		log.Printf("summary error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"total":    counts.Total(),
		"positive": counts.Positive,
		"negative": counts.Negative,
		"neutral":  counts.Neutral,
	})
}

// WordCloud ranks tokens across the caller's whole history.
func (h *Handlers) WordCloud(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return
	}

	texts, err := sqlite.AllTexts(h.db, uid)
	if err != nil {
		log.Printf("wordcloud error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	terms := h.words.TopTerms(strings.Join(texts, " "), 50)
	if terms == nil {
		terms = []domain.WordWeight{}
	}
	respondJSON(w, http.StatusOK, terms)
}

// SaveAnalysis stores a scrape/battle snapshot for later comparison.
func (h *Handlers) SaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label        string          `json:"label"`
		VideoURL     string          `json:"video_url"`
		AnalysisData json.RawMessage `json:"analysis_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Request body tidak valid")
		return
	}
	if strings.TrimSpace(body.VideoURL) == "" || len(body.AnalysisData) == 0 {
		respondError(w, http.StatusBadRequest, "Missing required data")
		return
	}
	if body.Label == "" {
		body.Label = "Untitled"
	}

	saved := domain.SavedAnalysis{
		ID:       uuid.NewString(),
		UserID:   userID(r),
		Label:    body.Label,
		VideoURL: body.VideoURL,
		Data:     body.AnalysisData,
	}
	if err := sqlite.SaveAnalysis(h.db, saved); err != nil {
		log.Printf("save analysis error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "Analysis saved successfully",
		"saved_id": saved.ID,
	})
}

func (h *Handlers) ListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := sqlite.ListSavedAnalyses(h.db, userID(r), 10)
	if err != nil {
		log.Printf("list saved error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	if saved == nil {
		saved = []domain.SavedAnalysis{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "success", "saved": saved})
}

// UploadTrainData stores the uploaded dataset and starts the background
// training job. The response succeeds optimistically; training outcome is
// reported through the status endpoints.
func (h *Handlers) UploadTrainData(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondError(w, http.StatusServiceUnavailable, "Training is not available with this classifier provider")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		respondError(w, http.StatusBadRequest, "File must be CSV")
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		log.Printf("upload dir error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	// Each upload gets its own file. A shared fixed path would let a
	// rejected second upload overwrite the dataset the running job reads.
	datasetPath := filepath.Join(h.cfg.UploadDir, fmt.Sprintf("training_data_%s.csv", uuid.NewString()))
	out, err := os.Create(datasetPath)
	if err != nil {
		log.Printf("upload create error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	if _, err := out.ReadFrom(file); err != nil {
		out.Close()
		log.Printf("upload write error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}
	out.Close()

	if err := h.trainer.Start(datasetPath); err != nil {
		if removeErr := os.Remove(datasetPath); removeErr != nil {
			log.Printf("failed to remove rejected dataset %s: %v", datasetPath, removeErr)
		}
		if errors.Is(err, training.ErrTrainingInProgress) {
			respondError(w, http.StatusConflict, "A training job is already running")
			return
		}
		log.Printf("training start error: %v", err)
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan pada server. Silakan coba lagi.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "File uploaded. Training started in background.",
	})
}

func (h *Handlers) TrainingStatus(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		respondError(w, http.StatusServiceUnavailable, "Training is not available with this classifier provider")
		return
	}
	respondJSON(w, http.StatusOK, h.trainer.Status())
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"model_loaded":  h.classifier.Ready(r.Context()),
		"model_version": h.classifier.Version(),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func nonNilRecords(records []domain.ClassificationRecord) []domain.ClassificationRecord {
	if records == nil {
		return []domain.ClassificationRecord{}
	}
	return records
}
