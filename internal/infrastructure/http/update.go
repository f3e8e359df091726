package httpserver

import (
	"errors"
	"net/http"

	"billing-service/internal/application"
	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

type releaseView struct {
	Version           string          `json:"version"`
	MinimumPHPVersion string          `json:"minimum_php_version,omitempty"`
	Extensions        map[string]bool `json:"extensions,omitempty"`
	DeletedFiles      []string        `json:"deleted_files,omitempty"`
}

type checkResponse struct {
	Success   bool         `json:"success"`
	Installed string       `json:"installed,omitempty"`
	Version   *releaseView `json:"version,omitempty"`
}

type stepResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

type downloadRequest struct {
	Version string `json:"version" validate:"required"`
}

type pathRequest struct {
	Path string `json:"path" validate:"required"`
}

type deleteRequest struct {
	DeletedFiles []string `json:"deleted_files" validate:"omitempty,dive,required"`
}

type finishRequest struct {
	Installed string `json:"installed" validate:"required"`
	Version   string `json:"version" validate:"required"`
}

func (s *Server) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	installed, err := s.updates.InstalledVersion(r.Context())
	if err != nil {
		s.stepFailed(w, domain.UpdateStepCheck, err)
		return
	}
	rel, err := s.updates.CheckForUpdate(r.Context(), installed)
	if err != nil {
		logx.L().Warn("update.check_failed", zap.Error(err))
		s.observe(domain.UpdateStepCheck, false)
		writeJSON(w, http.StatusOK, checkResponse{Success: false, Installed: installed})
		return
	}
	s.observe(domain.UpdateStepCheck, true)
	if rel == nil {
		writeJSON(w, http.StatusOK, checkResponse{Success: false, Installed: installed})
		return
	}
	view := &releaseView{
		Version:           rel.Version,
		MinimumPHPVersion: rel.MinimumPHPVersion,
		DeletedFiles:      rel.DeletedFiles,
	}
	if rel.Requirements != nil {
		view.Extensions = make(map[string]bool, len(rel.Requirements))
		for _, req := range rel.Requirements {
			view.Extensions[req.Name] = req.Satisfied
		}
	}
	writeJSON(w, http.StatusOK, checkResponse{Success: true, Installed: installed, Version: view})
}

func (s *Server) DownloadUpdate(w http.ResponseWriter, r *http.Request) {
	var body downloadRequest
	if !s.bind(w, r, &body) {
		return
	}
	path, err := s.updates.Download(r.Context(), body.Version, false)
	if err != nil {
		logx.L().Warn("update.step_failed", zap.String("step", "download"), zap.Error(err))
		s.observe(domain.UpdateStepDownload, false)
		writeJSON(w, http.StatusOK, stepResponse{Success: false, Error: application.ErrDownload.Error()})
		return
	}
	s.observe(domain.UpdateStepDownload, true)
	writeJSON(w, http.StatusOK, stepResponse{Success: true, Path: path})
}

func (s *Server) UnzipUpdate(w http.ResponseWriter, r *http.Request) {
	var body pathRequest
	if !s.bind(w, r, &body) {
		return
	}
	path, err := s.updates.Unzip(r.Context(), body.Path)
	if err != nil {
		s.stepFailed(w, domain.UpdateStepUnzip, err)
		return
	}
	s.observe(domain.UpdateStepUnzip, true)
	writeJSON(w, http.StatusOK, stepResponse{Success: true, Path: path})
}

func (s *Server) CopyUpdate(w http.ResponseWriter, r *http.Request) {
	var body pathRequest
	if !s.bind(w, r, &body) {
		return
	}
	s.stepDone(w, domain.UpdateStepCopy, s.updates.CopyFiles(r.Context(), body.Path))
}

func (s *Server) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var body deleteRequest
	if !s.bind(w, r, &body) {
		return
	}
	if len(body.DeletedFiles) == 0 {
		writeJSON(w, http.StatusOK, stepResponse{Success: true})
		return
	}
	s.stepDone(w, domain.UpdateStepDelete, s.updates.DeleteFiles(r.Context(), body.DeletedFiles))
}

func (s *Server) MigrateUpdate(w http.ResponseWriter, r *http.Request) {
	s.stepDone(w, domain.UpdateStepMigrate, s.updates.Migrate(r.Context()))
}

type finishResponse struct {
	Success bool  `json:"success"`
	Error   bool  `json:"error"`
	Data    []any `json:"data"`
}

func (s *Server) FinishUpdate(w http.ResponseWriter, r *http.Request) {
	var body finishRequest
	if !s.bind(w, r, &body) {
		return
	}
	if err := s.updates.Finish(r.Context(), body.Installed, body.Version); err != nil {
		s.stepFailed(w, domain.UpdateStepFinish, err)
		return
	}
	s.observe(domain.UpdateStepFinish, true)
	writeJSON(w, http.StatusOK, finishResponse{Success: true, Error: false, Data: []any{}})
}

func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := s.decodeBody(r, dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, stepResponse{Success: false, Error: err.Error()})
		return false
	}
	return true
}

func (s *Server) stepDone(w http.ResponseWriter, step domain.UpdateStep, err error) {
	if err != nil {
		s.stepFailed(w, step, err)
		return
	}
	s.observe(step, true)
	writeJSON(w, http.StatusOK, stepResponse{Success: true})
}

func (s *Server) stepFailed(w http.ResponseWriter, step domain.UpdateStep, err error) {
	logx.L().Warn("update.step_failed", zap.String("step", string(step)), zap.Error(err))
	s.observe(step, false)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, application.ErrInvalidPath):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrZipNotFound), errors.Is(err, application.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, stepResponse{Success: false, Error: err.Error()})
}
