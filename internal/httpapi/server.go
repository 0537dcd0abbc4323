package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"histoscan/internal/manager"
	"histoscan/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Predict(ctx context.Context, raw []byte) (types.PredictionResult, error)
	Health() types.HealthResponse
	Memory() types.MemoryResponse
	CheckModel() types.CheckModelResponse
	Ready() bool
}

// multipart field carrying the upload
const imageField = "image"

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(inflight)
		r.Post("/predict", predictHandler(svc))
		r.Get("/health", healthHandler(svc))
		r.Get("/memory", memoryHandler(svc))
		r.Get("/check-model", checkModelHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// predictHandler godoc
// @Summary      Classify an image
// @Description  Accepts a multipart upload in field "image" and returns the classification.
// @Tags         inference
// @Accept       multipart/form-data
// @Produce      json
// @Param        image  formData  file  true  "Tissue image (PNG, JPEG or GIF)"
// @Success      200  {object}  types.PredictionResult
// @Failure      400  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /predict [post]
func predictHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lvl := requestLogLevel(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "Upload too large", "")
				logPredictEnd(r, lvl, http.StatusRequestEntityTooLarge, start, err)
				return
			}
			writeJSONError(w, http.StatusBadRequest, "No image provided", "")
			logPredictEnd(r, lvl, http.StatusBadRequest, start, err)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		file, _, err := r.FormFile(imageField)
		if err != nil {
			// A part submitted with an empty filename is parsed as a plain
			// form value: the field was sent but no file was chosen.
			msg := "No image provided"
			if _, ok := r.MultipartForm.Value[imageField]; ok {
				msg = "No file selected"
			}
			writeJSONError(w, http.StatusBadRequest, msg, "")
			logPredictEnd(r, lvl, http.StatusBadRequest, start, err)
			return
		}
		defer file.Close()
		raw, err := io.ReadAll(file)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read upload", "")
			logPredictEnd(r, lvl, http.StatusBadRequest, start, err)
			return
		}

		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := svc.Predict(ctx, raw)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := statusFor(err)
			kind := manager.ErrorKind(err)
			if status == http.StatusServiceUnavailable {
				IncrementUnavailable(kind)
			}
			writeJSONError(w, status, err.Error(), kind)
			logPredictEnd(r, lvl, status, start, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		logPredictEnd(r, lvl, http.StatusOK, start, nil)
	}
}

// healthHandler godoc
// @Summary      Service health
// @Description  Reports model and memory state. Does not force a model load.
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func healthHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Health())
	}
}

// memoryHandler godoc
// @Summary      Memory snapshot
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.MemoryResponse
// @Router       /memory [get]
func memoryHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Memory())
	}
}

// checkModelHandler godoc
// @Summary      Artifact diagnostics
// @Description  Lists candidate artifact paths and the contents of their directories.
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.CheckModelResponse
// @Router       /check-model [get]
func checkModelHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.CheckModel())
	}
}
