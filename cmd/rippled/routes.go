package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/chazu/ripples/pkg/engine"
	"github.com/chazu/ripples/pkg/ripple"
)

// Context contains the structures shared by all handlers.
type Context struct {
	Log           logrus.FieldLogger
	MaxResolution int
	Timeout       time.Duration
	MaxBody       int64
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Errors []any `json:"errors"`
}

func newRouter(context *Context) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.Handle("/stl", &stlHandler{context}).Methods(http.MethodPost)
	api.Handle("/scene", &sceneHandler{context}).Methods(http.MethodPost)
	api.Handle("/defaults", &defaultsHandler{context}).Methods(http.MethodGet)
	return router
}

type stlHandler struct {
	*Context
}

func (h *stlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Omitted parameters keep their defaults.
	scene := ripple.Scene{Params: ripple.DefaultParams()}
	body := http.MaxBytesReader(w, r.Body, h.MaxBody)
	if err := json.NewDecoder(body).Decode(&scene); err != nil {
		h.Log.WithError(err).Debug("malformed scene")
		writeErrors(w, http.StatusBadRequest, fmt.Sprintf("malformed scene: %v", err))
		return
	}
	h.generate(w, r, scene)
}

type sceneHandler struct {
	*Context
}

func (h *sceneHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBody))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return
	}

	eng := engine.NewEngine()
	eng.Timeout = h.Timeout
	scene, evalErrs, err := eng.Evaluate(string(source))
	if err != nil {
		h.Log.WithError(err).Error("evaluate failed")
		writeErrors(w, statusFor(err), err.Error())
		return
	}
	if len(evalErrs) > 0 {
		errs := make([]any, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		_ = writeJSONResponse(w, http.StatusBadRequest, errorResponse{Errors: errs})
		return
	}
	h.generate(w, r, *scene)
}

type defaultsHandler struct {
	*Context
}

func (h *defaultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = writeJSONResponse(w, http.StatusOK, ripple.DefaultScene())
}

// generate runs scene through a request-scoped Generator and writes the STL
// as an attachment.
func (h *Context) generate(w http.ResponseWriter, r *http.Request, scene ripple.Scene) {
	if scene.Resolution > h.MaxResolution {
		_ = writeJSONResponse(w, http.StatusBadRequest, errorResponse{Errors: []any{ripple.ValidationError{
			Field:    "resolution",
			Message:  fmt.Sprintf("must be at most %d on this server, got %d", h.MaxResolution, scene.Resolution),
			Severity: ripple.SeverityError,
		}}})
		return
	}

	g := ripple.NewGenerator(ripple.Options{Logger: h.Log})
	g.Timeout = h.Timeout
	res, err := g.Generate(r.Context(), scene)

	var perr *ripple.InvalidParamsError
	switch {
	case errors.As(err, &perr):
		errs := make([]any, len(perr.Errors))
		for i, v := range perr.Errors {
			errs[i] = v
		}
		_ = writeJSONResponse(w, http.StatusBadRequest, errorResponse{Errors: errs})
		return
	case err != nil:
		h.Log.WithError(err).Error("generate failed")
		writeErrors(w, statusFor(err), err.Error())
		return
	}

	h.Log.WithFields(logrus.Fields{
		"triangles": res.TriangleCount(),
		"bytes":     len(res.STL),
		"warnings":  len(res.Warnings),
	}).Info("served STL")

	w.Header().Set("Content-Type", ripple.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ripple.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.STL)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.STL)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ripple.ErrTimeout), errors.Is(err, engine.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	errs := make([]any, len(msgs))
	for i, m := range msgs {
		errs[i] = map[string]string{"message": m}
	}
	_ = writeJSONResponse(w, status, errorResponse{Errors: errs})
}

func writeJSONResponse(w http.ResponseWriter, httpStatus int, body interface{}) error {
	marshaled, marshalingErr := json.Marshal(body)
	if marshalingErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return marshalingErr
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_, writeErr := w.Write(marshaled)
	return writeErr
}
