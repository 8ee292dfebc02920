package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/branch"
	"github.com/hackgods/branch-appointment-booking/internal/commit"
	"github.com/hackgods/branch-appointment-booking/internal/observability/metrics"
	redisclient "github.com/hackgods/branch-appointment-booking/internal/redis"
	"github.com/hackgods/branch-appointment-booking/internal/session"
)

var (
	errInvalidAppointmentType = errors.New("unknown appointment type")
	errBranchNotFound         = errors.New("branch is not in the last lookup result")
	errNoConfirmation         = errors.New("no booking has been confirmed in this session")
)

type bookingDeps struct {
	sessions  *session.Store
	cookies   *SessionCookies
	directory branch.Directory
	sink      commit.Sink
	metrics   *metrics.WizardMetrics
	log       *zap.Logger
}

func listAppointmentTypesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, AppointmentTypesResponse{AppointmentTypes: booking.AppointmentTypes})
	}
}

func createSessionHandler(d *bookingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := d.cookies.SessionID(r); ok {
			d.sessions.Delete(id)
		}

		sess := d.sessions.Create()
		if err := d.cookies.Set(w, r, sess.ID); err != nil {
			d.sessions.Delete(sess.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "could not encode session cookie")
			return
		}

		var resp SessionResponse
		_ = sess.Do(func(st *session.State) error {
			resp = newSessionResponse(st.Wizard)
			return nil
		})
		writeJSON(w, http.StatusCreated, resp)
	}
}

func deleteSessionHandler(d *bookingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.sessions.Delete(sessionFromContext(r.Context()).ID)
		d.cookies.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func getSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithSession(w, r, func(*session.State) error { return nil })
	}
}

func setAppointmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var apptType booking.AppointmentType
		if req.AppointmentType != "" {
			t, ok := booking.ParseAppointmentType(req.AppointmentType)
			if !ok {
				handleWizardError(w, fmt.Errorf("%w: %q", errInvalidAppointmentType, req.AppointmentType))
				return
			}
			apptType = t
		}

		respondWithSession(w, r, func(st *session.State) error {
			if err := st.Wizard.SetAppointmentType(apptType); err != nil {
				return err
			}
			return st.Wizard.SetPostalCode(req.PostalCode)
		})
	}
}

func listBranchesHandler(d *bookingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp BranchesResponse
		err := sessionFromContext(r.Context()).Do(func(st *session.State) error {
			postal := st.Wizard.Draft().PostalCode
			branches, err := d.directory.Lookup(r.Context(), postal)
			if err != nil {
				return err
			}
			st.Branches = branches
			resp = BranchesResponse{PostalCode: postal, Branches: branches}
			return nil
		})
		if err != nil {
			handleWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func selectBranchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BranchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		respondWithSession(w, r, func(st *session.State) error {
			b, ok := branch.Find(st.Branches, req.BranchID)
			if !ok {
				return fmt.Errorf("%w: %q", errBranchNotFound, req.BranchID)
			}
			return st.Wizard.SetBranch(b)
		})
	}
}

func listDatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := 0
		if raw := r.URL.Query().Get("start"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start", "start must be an integer offset")
				return
			}
			start = n
		}

		var resp DateWindowResponse
		_ = sessionFromContext(r.Context()).Do(func(st *session.State) error {
			resp = newDateWindowResponse(st.Wizard.Calendar(), start)
			return nil
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func listSlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := chi.URLParam(r, "date")

		var (
			slots []booking.TimeSlot
			ok    bool
		)
		_ = sessionFromContext(r.Context()).Do(func(st *session.State) error {
			slots, ok = st.Wizard.Calendar().QueryDay(date)
			return nil
		})
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "date is outside the booking window")
			return
		}

		writeJSON(w, http.StatusOK, SlotsResponse{Date: date, LongLabel: booking.LongDate(date), Slots: slots})
	}
}

func selectSlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		respondWithSession(w, r, func(st *session.State) error {
			return st.Wizard.SelectTimeSlot(req.Date, req.Time)
		})
	}
}

func setContactHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ContactRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		respondWithSession(w, r, func(st *session.State) error {
			return st.Wizard.SetContactInfo(booking.ContactInfo{
				Name:  req.Name,
				Email: req.Email,
				Phone: booking.FormatPhone(req.Phone),
			})
		})
	}
}

func nextHandler(d *bookingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp TransitionResponse
		err := sessionFromContext(r.Context()).Do(func(st *session.State) error {
			from := st.Wizard.Step()
			moved, err := st.Wizard.NextWithCommit(func(rec booking.BookingRecord) error {
				return d.commitBooking(r.Context(), rec)
			})
			d.metrics.ObserveTransition(from.String(), "next", moved)
			if err != nil {
				return err
			}

			if rec, ok := st.Wizard.Record(); ok && moved {
				d.metrics.ObserveIssued(string(rec.AppointmentType))
				d.log.Info("booking confirmed",
					zap.String("confirmation_id", rec.ConfirmationID),
					zap.String("branch_id", rec.Branch.ID),
					zap.String("request_id", GetRequestID(r.Context())),
				)
			}
			resp = TransitionResponse{Moved: moved, Session: newSessionResponse(st.Wizard)}
			return nil
		})
		if err != nil {
			handleWizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func backHandler(d *bookingDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp TransitionResponse
		_ = sessionFromContext(r.Context()).Do(func(st *session.State) error {
			from := st.Wizard.Step()
			moved := st.Wizard.Back()
			d.metrics.ObserveTransition(from.String(), "back", moved)
			resp = TransitionResponse{Moved: moved, Session: newSessionResponse(st.Wizard)}
			return nil
		})
		writeJSON(w, http.StatusOK, resp)
	}
}

func resetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithSession(w, r, func(st *session.State) error {
			st.Wizard.Reset()
			st.Branches = nil
			return nil
		})
	}
}

func confirmationTextHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			rec booking.BookingRecord
			ok  bool
		)
		_ = sessionFromContext(r.Context()).Do(func(st *session.State) error {
			rec, ok = st.Wizard.Record()
			return nil
		})
		if !ok {
			handleWizardError(w, errNoConfirmation)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="bank-appointment-%s.txt"`, rec.ConfirmationID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rec.Text()))
	}
}

func (d *bookingDeps) commitBooking(ctx context.Context, rec booking.BookingRecord) error {
	start := time.Now()
	err := d.sink.Commit(ctx, rec)
	d.metrics.ObserveCommit(time.Since(start).Seconds(), commitFailureReason(err))
	if err != nil {
		d.log.Warn("booking commit failed",
			zap.String("confirmation_id", rec.ConfirmationID),
			zap.String("branch_id", rec.Branch.ID),
			zap.String("slot_date", rec.TimeSlot.Date),
			zap.String("slot_time", rec.TimeSlot.Time),
			zap.Error(err),
		)
	}
	return err
}

func commitFailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, commit.ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, commit.ErrSlotBeingBooked):
		return "slot_being_booked"
	default:
		return "error"
	}
}

// respondWithSession applies fn to the request's session and writes the
// resulting session view.
func respondWithSession(w http.ResponseWriter, r *http.Request, fn func(st *session.State) error) {
	var resp SessionResponse
	err := sessionFromContext(r.Context()).Do(func(st *session.State) error {
		if err := fn(st); err != nil {
			return err
		}
		resp = newSessionResponse(st.Wizard)
		return nil
	})
	if err != nil {
		handleWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidAppointmentType):
		writeError(w, http.StatusBadRequest, "invalid_appointment_type", err.Error())
	case errors.Is(err, branch.ErrInvalidPostalCode):
		writeError(w, http.StatusBadRequest, "invalid_postal_code", err.Error())
	case errors.Is(err, errBranchNotFound):
		writeError(w, http.StatusNotFound, "branch_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotHeld):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrBookingComplete):
		writeError(w, http.StatusConflict, "booking_complete", err.Error())
	case errors.Is(err, booking.ErrDraftIncomplete):
		writeError(w, http.StatusUnprocessableEntity, "draft_incomplete", err.Error())
	case errors.Is(err, errNoConfirmation):
		writeError(w, http.StatusNotFound, "confirmation_not_found", err.Error())
	case errors.Is(err, commit.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, commit.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
