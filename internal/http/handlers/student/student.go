// Package student contains the HTTP handlers for the student directory.
//
// Handlers are factories: each takes the directory once at startup and
// returns the http.HandlerFunc the router calls on every request.
//
//	router.HandleFunc("POST /api/students", student.New(dir))
//
// Writes are commands. The handler validates the payload, hands it to the
// directory and answers 202 Accepted straight away; the client sees the
// effect by listing the students again once the directory has refreshed.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/students-sync/internal/types"
	"github.com/aanand-mishra/students-sync/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// Directory is what the handlers need from the student directory.
type Directory interface {
	Students() []types.Student
	AddStudent(student types.Student)
	UpdateStudent(student types.Student)
	DeleteStudent(student types.Student)
}

var validate = validator.New()

// decode reads and validates a student from the request body. On failure it
// has already written the 400 response.
func decode(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return student, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return student, false
	}

	if err := validate.Struct(student); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return student, false
	}

	return student, true
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
//	{ "id": "S1", "name": "Bob", "program": "CS", "phones": ["111", "222"] }
//
// Any docId in the body is ignored; the store assigns one.
// 202 on accept, 400 on an empty body, malformed JSON or failed validation.
// ─────────────────────────────────────────────────────────────────────────────
func New(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		student, ok := decode(w, r)
		if !ok {
			return
		}
		student.DocID = ""

		dir.AddStudent(student)
		response.WriteJSON(w, http.StatusAccepted, response.Accepted())
	}
}

// GetList handles GET /api/students and returns the current list, sorted by
// name. An empty directory is [] rather than null.
func GetList(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")
		response.WriteJSON(w, http.StatusOK, dir.Students())
	}
}

// GetByID handles GET /api/students/{docId}. The lookup is against the
// directory's current list, not the store.
func GetByID(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := r.PathValue("docId")
		slog.Info("getting a student", slog.String("doc_id", docID))

		for _, s := range dir.Students() {
			if s.DocID == docID {
				response.WriteJSON(w, http.StatusOK, s)
				return
			}
		}

		response.WriteJSON(w, http.StatusNotFound,
			response.GeneralError(errors.New("no student found with doc id: "+docID)))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{docId}
// Replaces every field of the student, phones included. The path's docId
// wins over any docId in the body.
// ─────────────────────────────────────────────────────────────────────────────
func Update(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := r.PathValue("docId")
		slog.Info("updating a student", slog.String("doc_id", docID))

		student, ok := decode(w, r)
		if !ok {
			return
		}
		student.DocID = docID

		dir.UpdateStudent(student)
		response.WriteJSON(w, http.StatusAccepted, response.Accepted())
	}
}

// Delete handles DELETE /api/students/{docId}.
func Delete(dir Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := r.PathValue("docId")
		slog.Info("deleting a student", slog.String("doc_id", docID))

		dir.DeleteStudent(types.Student{DocID: docID})
		response.WriteJSON(w, http.StatusAccepted, response.Accepted())
	}
}

// Register mounts every student route on mux.
func Register(mux *http.ServeMux, dir Directory) {
	mux.HandleFunc("POST /api/students", New(dir))
	mux.HandleFunc("GET /api/students", GetList(dir))
	mux.HandleFunc("GET /api/students/{docId}", GetByID(dir))
	mux.HandleFunc("PUT /api/students/{docId}", Update(dir))
	mux.HandleFunc("DELETE /api/students/{docId}", Delete(dir))
}
