package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/report"
	"gradecalc/internal/services"
)

// handleIndex renders the full page around the current view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, "index.html", NewHTMXResponse())
}

// handleView renders only the current view, for htmx refreshes.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse())
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseNavigateRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	view, _ := services.ParseView(req.View)
	if err := s.calc.Navigate(r.Context(), view); err != nil {
		if errors.Is(err, core.ErrNoResult) {
			ValidationError("Calculate a GPA first.").Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse().TriggerViewChanged(view.String()))
}

func (s *Server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.calc.AddCourse()
	s.renderView(w, r, NewHTMXResponse())
}

func (s *Server) handleEditCourse(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseEditRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, err := s.calc.EditCourse(r.Context(), req.Index, req.Field, req.Value)
	s.finishEdit(w, r, res, err, msgNegative)
}

func (s *Server) handleEditSemester(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseEditRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, err := s.calc.EditSemester(r.Context(), req.Index, req.Field, req.Value)
	refused := msgNegative
	if req.Field == core.FieldCredit {
		refused = msgSemesterCredit
	}
	s.finishEdit(w, r, res, err, refused)
}

const (
	msgNegative       = "Negative values are not allowed."
	msgSemesterCredit = "Credit must be a whole number of at least 1."
)

// finishEdit answers an edit. An applied edit needs no swap; a refused one
// re-renders the view so the input shows its previous value again.
func (s *Server) finishEdit(w http.ResponseWriter, r *http.Request, res core.EditResult, err error, refused string) {
	switch {
	case errors.Is(err, services.ErrRowIndex):
		NotFoundError("No such row").Write(w)
		return
	case err != nil:
		s.logError(r, "Saving edit failed", err, log.OpEdit)
		InternalServerError("Could not save your change.").Write(w)
		return
	}

	switch res {
	case core.EditApplied:
		NewHTMXResponse().Status(http.StatusNoContent).Write(w)
	case core.EditRejected:
		s.renderView(w, r, NewHTMXResponse().TriggerWarningNotification(refused))
	default:
		BadRequestError("Unknown field").Write(w)
	}
}

func (s *Server) handleSubmitGPA(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if _, err := s.calc.SubmitGPA(r.Context()); err != nil {
		if isValidationError(err) {
			ValidationError(validationMessage(err, "Course")).Write(w)
			return
		}
		s.logError(r, "GPA calculation failed", err, log.OpCalculate)
		InternalServerError("Could not calculate the GPA.").Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse().TriggerViewChanged(services.ViewGPAResult.String()))
}

func (s *Server) handleResetGPA(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.calc.ResetGPA(r.Context())
	s.renderView(w, r, NewHTMXResponse().TriggerViewChanged(services.ViewHome.String()))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.calc.Transfer(r.Context()); err != nil {
		s.logError(r, "Transfer failed", err, log.OpTransfer)
		InternalServerError("Could not save the semester.").Write(w)
		return
	}
	snap := s.calc.Snapshot()
	s.renderView(w, r, NewHTMXResponse().
		TriggerViewChanged(snap.View.String()).
		TriggerSemestersChanged(len(snap.Semesters)).
		TriggerSuccessNotification("GPA added to your semesters."))
}

func (s *Server) handleAddSemester(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.calc.AddSemester(r.Context()); err != nil {
		s.logError(r, "Adding semester failed", err, log.OpReplace)
		InternalServerError("Could not save the semester.").Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse().TriggerSemestersChanged(len(s.calc.Snapshot().Semesters)))
}

func (s *Server) handleSubmitCGPA(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if _, err := s.calc.SubmitCGPA(r.Context()); err != nil {
		if isValidationError(err) {
			ValidationError(validationMessage(err, "Sem")).Write(w)
			return
		}
		s.logError(r, "CGPA calculation failed", err, log.OpCalculate)
		InternalServerError("Could not calculate the CGPA.").Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse())
}

func (s *Server) handleClearSemesters(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	req, err := ParseClearRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.calc.ClearSemesters(r.Context(), req.Confirm); err != nil {
		if errors.Is(err, core.ErrClearNotConfirmed) {
			// Declining the prompt leaves everything as it was.
			NewHTMXResponse().Status(http.StatusNoContent).Write(w)
			return
		}
		s.logError(r, "Clearing semesters failed", err, log.OpClear)
		InternalServerError("Could not clear the semesters.").Write(w)
		return
	}
	s.renderView(w, r, NewHTMXResponse().TriggerSemestersChanged(0))
}

func (s *Server) handleLeaveCGPA(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	s.calc.LeaveCGPA(r.Context())
	s.renderView(w, r, NewHTMXResponse().TriggerViewChanged(services.ViewHome.String()))
}

// handleExport streams the held result as a PDF attachment.
func (s *Server) handleExport(kind report.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := RequireGET(r); resp != nil {
			resp.Write(w)
			return
		}

		snap := s.calc.Snapshot()
		var (
			buf bytes.Buffer
			err error
		)
		switch kind {
		case report.KindGPA:
			if snap.GPAResult == nil {
				NotFoundError("No GPA result to export.").Write(w)
				return
			}
			err = s.exporter.GPA(r.Context(), &buf, *snap.GPAResult)
		case report.KindCGPA:
			if snap.CGPAResult == nil {
				NotFoundError("No CGPA result to export.").Write(w)
				return
			}
			err = s.exporter.CGPA(r.Context(), &buf, *snap.CGPAResult, len(snap.Semesters))
		}
		if err != nil {
			s.logError(r, "PDF export failed", err, log.OpExport)
			InternalServerError("Could not create the PDF.").Write(w)
			return
		}

		NewHTMXResponse().
			Header("Content-Type", "application/pdf").
			Header("Content-Disposition", `attachment; filename="`+report.FileName(kind)+`"`).
			Header("Content-Length", strconv.Itoa(buf.Len())).
			Body(buf.Bytes()).
			Write(w)
	}
}

// renderView executes the current view partial with resp's headers.
func (s *Server) renderView(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder) {
	s.render(w, r, "view", resp)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, resp *HTMXResponseBuilder) {
	data := newPageData(s.calc.Snapshot())

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldView, data.View)
		InternalServerError("Could not render the page.").Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) logError(r *http.Request, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentHTTP, op, log.NewFields())
}
