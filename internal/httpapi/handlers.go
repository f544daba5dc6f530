package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alexanderramin/dealflow/internal/domain"
	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, recordstore.Envelope{Success: true, Data: data})
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid id %q", c.Param("id")))
	}
	return id, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func badQuery(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// errorHandler renders every failure as an Envelope. Validation failures carry
// their field errors so the client can rebuild a *domain.ValidationError.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		env := recordstore.Envelope{Message: "internal error"}

		var ve *domain.ValidationError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ve):
			status = http.StatusUnprocessableEntity
			env = recordstore.ValidationEnvelope(ve)
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
			env.Message = err.Error()
		case errors.Is(err, domain.ErrContactInUse):
			status = http.StatusConflict
			env.Message = err.Error()
		case errors.As(err, &he):
			status = he.Code
			env.Message = fmt.Sprint(he.Message)
		default:
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, env)
		}
		if werr != nil {
			logger.Warn("writing error response", zap.Error(werr))
		}
	}
}

// deleted answers a delete. A record that was already gone is a 404 so the
// remote client can report it as not existing.
func deleted(c echo.Context, entity string, id int64, existed bool) error {
	if !existed {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return ok(c, http.StatusOK, nil)
}

// Contacts.

func (s *Server) listContacts(c echo.Context) error {
	q, err := recordstore.ParseContactQuery(c.QueryParams())
	if err != nil {
		return badQuery(err)
	}
	list, err := s.store.Contacts.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	out := make([]recordstore.ContactRecord, 0, len(list))
	for _, ct := range list {
		out = append(out, recordstore.ContactToRecord(ct))
	}
	return ok(c, http.StatusOK, out)
}

func (s *Server) getContact(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ct, err := s.store.Contacts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.ContactToRecord(ct))
}

func (s *Server) createContact(c echo.Context) error {
	var rec recordstore.ContactRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	in, err := rec.ToContact()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := s.store.Contacts.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, recordstore.ContactToRecord(created))
}

func (s *Server) updateContact(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var rec recordstore.ContactPatchRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	patch, err := rec.ToPatch()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := s.store.Contacts.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.ContactToRecord(updated))
}

func (s *Server) deleteContact(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	existed, err := s.store.Contacts.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return deleted(c, "contact", id, existed)
}

// Deals.

func (s *Server) listDeals(c echo.Context) error {
	q, err := recordstore.ParseDealQuery(c.QueryParams())
	if err != nil {
		return badQuery(err)
	}
	list, err := s.store.Deals.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	out := make([]recordstore.DealRecord, 0, len(list))
	for _, d := range list {
		out = append(out, recordstore.DealToRecord(d))
	}
	return ok(c, http.StatusOK, out)
}

func (s *Server) getDeal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := s.store.Deals.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.DealToRecord(d))
}

func (s *Server) createDeal(c echo.Context) error {
	var rec recordstore.DealRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	in, err := rec.ToDeal()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := s.store.Deals.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, recordstore.DealToRecord(created))
}

func (s *Server) updateDeal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var rec recordstore.DealPatchRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	patch, err := rec.ToPatch()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := s.store.Deals.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.DealToRecord(updated))
}

func (s *Server) deleteDeal(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	existed, err := s.store.Deals.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return deleted(c, "deal", id, existed)
}

// Activities.

func (s *Server) listActivities(c echo.Context) error {
	q, err := recordstore.ParseActivityQuery(c.QueryParams())
	if err != nil {
		return badQuery(err)
	}
	list, err := s.store.Activities.List(c.Request().Context(), q)
	if err != nil {
		return err
	}
	out := make([]recordstore.ActivityRecord, 0, len(list))
	for _, a := range list {
		out = append(out, recordstore.ActivityToRecord(a))
	}
	return ok(c, http.StatusOK, out)
}

func (s *Server) getActivity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := s.store.Activities.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.ActivityToRecord(a))
}

func (s *Server) createActivity(c echo.Context) error {
	var rec recordstore.ActivityRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	in, err := rec.ToActivity()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := s.store.Activities.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, recordstore.ActivityToRecord(created))
}

func (s *Server) updateActivity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var rec recordstore.ActivityPatchRecord
	if err := bind(c, &rec); err != nil {
		return err
	}
	patch, err := rec.ToPatch()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := s.store.Activities.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, recordstore.ActivityToRecord(updated))
}

func (s *Server) deleteActivity(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	existed, err := s.store.Activities.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return deleted(c, "activity", id, existed)
}
