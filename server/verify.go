package server

import (
	"errors"
	"github.com/elmanelman/solution-judge/compare"
	"github.com/elmanelman/solution-judge/subtask"
	"github.com/go-chi/chi/v5"
	"github.com/go-ozzo/ozzo-validation/v3"
	"github.com/go-ozzo/ozzo-validation/v3/is"
	"go.uber.org/zap"
	"io/ioutil"
	"net/http"
)

const maxSubmissionSize = 4 << 20

// POST /api/v1/tasks/{task_id}/subtasks/{id}/verify
func (s *Server) verifySubtaskSolution(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	subtaskID := chi.URLParam(r, "id")
	if err := validation.Validate(taskID, validation.Required, is.UUID); err != nil {
		http.Error(w, "task_id: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.Validate(subtaskID, validation.Required, is.UUID); err != nil {
		http.Error(w, "id: "+err.Error(), http.StatusBadRequest)
		return
	}

	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmissionSize))
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	submission, err := compare.DecodeSubmission(body)
	if err != nil {
		http.Error(w, "bad solution: "+err.Error(), http.StatusBadRequest)
		return
	}

	st, err := s.subtasks.Get(r.Context(), subtaskID)
	if err != nil {
		if errors.Is(err, subtask.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("loading subtask failed", zap.String("subtask_id", subtaskID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// this subtask does not have a public solution
	reference, ok := st.Verifiable()
	if !ok {
		http.NotFound(w, r)
		return
	}

	result := compare.Compare(submission, reference)
	data, err := compare.MarshalResult(result)
	if err != nil {
		s.logger.Error("encoding result failed", zap.String("subtask_id", subtaskID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.logger.Debug(
		"solution verified",
		zap.String("subtask_id", subtaskID),
		zap.String("result", resultKind(result)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func resultKind(r compare.Result) string {
	switch r.(type) {
	case compare.SQLResult:
		return compare.TagSQL
	case compare.ChoiceResult:
		return compare.TagMultipleChoice
	case compare.TextResult:
		return compare.TagPlaintext
	default:
		return compare.TagError
	}
}
