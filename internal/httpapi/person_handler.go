package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"familytree/internal/domain"
	"familytree/internal/repository"
	"familytree/internal/service"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const birthDateLayout = "2006-01-02"

// PersonHandler the /people endpoints: list, detail (with children),
// create/edit forms with parent and sex options, delete confirmation, and an
// xlsx export of the register.
type PersonHandler struct {
	svc    *service.PersonService
	logger *zap.Logger
}

func NewPersonHandler(svc *service.PersonService, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{svc: svc, logger: logger}
}

// formResponse a FormPayload plus the anti-forgery token the form must echo.
type formResponse struct {
	service.FormPayload
	CSRFToken string `json:"csrf_token,omitempty"`
}

// List GET /people
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list persons", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list persons"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": persons,
		"total": len(persons),
	}))
}

// Detail GET /people/{id}
func (h *PersonHandler) Detail(w http.ResponseWriter, r *http.Request, id int64) {
	detail, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		h.respondLoadError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detail))
}

// NewForm GET /people/new
func (h *PersonHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	options, err := h.svc.FormOptions(r.Context(), nil)
	if err != nil {
		h.logger.Error("failed to build form options", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build form"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(formResponse{
		FormPayload: service.FormPayload{Options: options},
		CSRFToken:   csrf.Token(r),
	}))
}

// Create POST /people
// Valid submission: insert and redirect to the list. Invalid: re-render the
// form payload with the submitted values pre-selected and field messages.
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	person, fieldErrs := h.bindPersonForm(r)
	if len(fieldErrs) > 0 {
		h.respondInvalid(w, r, person, fieldErrs)
		return
	}
	if _, err := h.svc.Create(r.Context(), person); err != nil {
		// Typically a father/mother id referencing a nonexistent person,
		// rejected by the store's foreign keys.
		h.logger.Error("failed to create person", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail("failed to create person"))
		return
	}
	http.Redirect(w, r, "/people", http.StatusSeeOther)
}

// EditForm GET /people/{id}/edit
func (h *PersonHandler) EditForm(w http.ResponseWriter, r *http.Request, id int64) {
	person, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondLoadError(w, err, id)
		return
	}
	options, err := h.svc.FormOptions(r.Context(), person)
	if err != nil {
		h.logger.Error("failed to build form options", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build form"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(formResponse{
		FormPayload: service.FormPayload{Person: person, Options: options},
		CSRFToken:   csrf.Token(r),
	}))
}

// Edit POST /people/{id}/edit
// The path identifier must match the submitted one; a mismatched form
// submission is not-found, never a write.
func (h *PersonHandler) Edit(w http.ResponseWriter, r *http.Request, id int64) {
	person, fieldErrs := h.bindPersonForm(r)

	bodyID, ok := parseInt64(r.PostFormValue("id"))
	if !ok || bodyID != id {
		writeJSON(w, http.StatusNotFound, Fail("person not found"))
		return
	}
	person.ID = id

	if v, ok := parseInt64(r.PostFormValue("row_version")); ok {
		person.RowVersion = v
	} else {
		fieldErrs["row_version"] = "must be a whole number"
	}

	if len(fieldErrs) > 0 {
		h.respondInvalid(w, r, person, fieldErrs)
		return
	}

	err := h.svc.Update(r.Context(), person)
	switch {
	case err == nil:
		http.Redirect(w, r, "/people", http.StatusSeeOther)
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("person not found"))
	case errors.Is(err, repository.ErrConflict):
		writeJSON(w, http.StatusConflict, Fail("person was modified concurrently; reload and try again"))
	default:
		h.logger.Error("failed to update person", zap.Int64("person_id", id), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, Fail("failed to update person"))
	}
}

// DeleteForm GET /people/{id}/delete
// Confirmation view; no mutation happens here.
func (h *PersonHandler) DeleteForm(w http.ResponseWriter, r *http.Request, id int64) {
	person, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondLoadError(w, err, id)
		return
	}
	writeJSON(w, http.StatusOK, Ok(formResponse{
		FormPayload: service.FormPayload{Person: person},
		CSRFToken:   csrf.Token(r),
	}))
}

// DeleteConfirmed POST /people/{id}/delete
func (h *PersonHandler) DeleteConfirmed(w http.ResponseWriter, r *http.Request, id int64) {
	err := h.svc.Delete(r.Context(), id)
	switch {
	case err == nil:
		http.Redirect(w, r, "/people", http.StatusSeeOther)
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("person not found"))
	default:
		h.logger.Error("failed to delete person", zap.Int64("person_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to delete person"))
	}
}

// Export GET /people/export
func (h *PersonHandler) Export(w http.ResponseWriter, r *http.Request) {
	persons, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list persons for export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export persons"))
		return
	}
	data, err := service.GeneratePeopleExport(persons)
	if err != nil {
		h.logger.Error("failed to generate export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to export persons"))
		return
	}
	filename := fmt.Sprintf("people-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *PersonHandler) respondLoadError(w http.ResponseWriter, err error, id int64) {
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("person not found"))
		return
	}
	h.logger.Error("failed to load person", zap.Int64("person_id", id), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, Fail("failed to load person"))
}

func (h *PersonHandler) respondInvalid(w http.ResponseWriter, r *http.Request, person *domain.Person, fieldErrs map[string]string) {
	options, err := h.svc.FormOptions(r.Context(), person)
	if err != nil {
		h.logger.Error("failed to rebuild form options", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build form"))
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, Invalid("validation failed", formResponse{
		FormPayload: service.FormPayload{Person: person, Options: options, Errors: fieldErrs},
		CSRFToken:   csrf.Token(r),
	}))
}

// bindPersonForm binds the submitted form fields into a Person. All fields
// are optional; a present but malformed value is a field error. The data
// owner defaults to the authenticated subject when left blank.
func (h *PersonHandler) bindPersonForm(r *http.Request) (*domain.Person, map[string]string) {
	fieldErrs := map[string]string{}
	if err := r.ParseForm(); err != nil {
		fieldErrs["form"] = "malformed form submission"
		return &domain.Person{}, fieldErrs
	}

	p := &domain.Person{}
	if v := r.PostFormValue("first_name"); v != "" {
		p.FirstName = &v
	}
	if v := r.PostFormValue("last_name"); v != "" {
		p.LastName = &v
	}
	p.BirthDate = bindDate(r.PostFormValue("birth_date"), "birth_date", fieldErrs)
	p.DeathDate = bindDate(r.PostFormValue("death_date"), "death_date", fieldErrs)

	switch v := r.PostFormValue("is_male"); v {
	case "":
	case "true":
		t := true
		p.IsMale = &t
	case "false":
		f := false
		p.IsMale = &f
	default:
		fieldErrs["is_male"] = "must be true, false, or blank"
	}

	p.FatherID = bindID(r.PostFormValue("father_id"), "father_id", fieldErrs)
	p.MotherID = bindID(r.PostFormValue("mother_id"), "mother_id", fieldErrs)

	if v := r.PostFormValue("data_owner_id"); v != "" {
		p.DataOwnerID = &v
	} else if sess := SessionFromContext(r.Context()); sess != nil && sess.Subject != "" {
		owner := sess.Subject
		p.DataOwnerID = &owner
	}
	return p, fieldErrs
}

func bindDate(v, field string, fieldErrs map[string]string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(birthDateLayout, v)
	if err != nil {
		fieldErrs[field] = "must be a date in YYYY-MM-DD format"
		return nil
	}
	return &t
}

func bindID(v, field string, fieldErrs map[string]string) *int64 {
	if v == "" {
		return nil
	}
	id, ok := parseInt64(v)
	if !ok {
		fieldErrs[field] = "must be a person identifier"
		return nil
	}
	return &id
}
