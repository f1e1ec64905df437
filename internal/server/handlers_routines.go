package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
	"github.com/armgate-dev/armgate/pkg/gateway/routines"
)

// maxGcodeUpload bounds uploaded routine files.
const maxGcodeUpload = 5 << 20

// saveInput reads a routine payload from a form or multipart request.
// The uploaded file, when present, supplies the program body.
func saveInput(r *http.Request) (routines.SaveInput, error) {
	in := routines.SaveInput{
		Filename:    r.PostFormValue("filename"),
		Description: r.PostFormValue("description"),
		Content:     r.PostFormValue("content"),
	}

	file, header, err := r.FormFile("gcodeFile")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return in, nil
	}
	if err != nil {
		return in, apierr.New(apierr.KindValidation, "malformed file upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxGcodeUpload+1))
	if err != nil {
		return in, apierr.New(apierr.KindValidation, "failed to read uploaded file", err)
	}
	if len(data) > maxGcodeUpload {
		return in, apierr.Newf(apierr.KindValidation, "uploaded file exceeds %d bytes", maxGcodeUpload)
	}
	in.UploadName = header.Filename
	in.UploadData = data
	return in, nil
}

func (s *Server) handleRoutineList(w http.ResponseWriter, r *http.Request, sess *Session) {
	list, err := s.routines.List(r.Context(), sess.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"routines": list,
	})
}

func (s *Server) handleRoutineCreate(w http.ResponseWriter, r *http.Request, sess *Session) {
	in, err := saveInput(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id, err := s.routines.Create(r.Context(), sess.Token, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
	})
}

func (s *Server) handleRoutineGet(w http.ResponseWriter, r *http.Request, sess *Session) {
	routine, err := s.routines.Get(r.Context(), sess.Token, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"routine": routine,
	})
}

func (s *Server) handleRoutineUpdate(w http.ResponseWriter, r *http.Request, sess *Session) {
	in, err := saveInput(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.routines.Update(r.Context(), sess.Token, mux.Vars(r)["id"], in); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleRoutineDelete(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.routines.Delete(r.Context(), sess.Token, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleRoutineExecute(w http.ResponseWriter, r *http.Request, sess *Session) {
	outcome, err := s.routines.Execute(r.Context(), sess.Token, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": outcome.Message,
		"result":  outcome.Result,
	})
}

func (s *Server) handleRoutineDownload(w http.ResponseWriter, r *http.Request, sess *Session) {
	filename, data, err := s.routines.Download(r.Context(), sess.Token, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
