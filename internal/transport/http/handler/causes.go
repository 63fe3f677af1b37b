package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	"causebridge/internal/service"
	httpez "causebridge/internal/transport/http/ez"
	resp "causebridge/internal/transport/http/response"
)

// Causes serves the public directory and everything under one cause.
type Causes struct{ Env }

func (*Causes) Priority() int { return 20 }

func (h *Causes) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g, h.log())

	httpez.RegisterAction(ez, httpez.Action[service.CauseFilter, resp.Data[[]domain.Cause]]{
		Method: http.MethodGet,
		Path:   "/causes",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *domain.Session, in *service.CauseFilter) (resp.Data[[]domain.Cause], error) {
			list, err := h.Svc.Registry.PublicCauses(c.Request.Context(), *in)
			return resp.Data[[]domain.Cause]{Data: list}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.Cause]{
		Method: http.MethodGet,
		Path:   "/causes/:id",
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*domain.Cause, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.Svc.Registry.CauseByID(c.Request.Context(), s, id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.CausePatch, *domain.Cause]{
		Method: http.MethodPatch,
		Path:   "/cause/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, in *service.CausePatch) (*domain.Cause, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.Svc.Registry.UpdateCause(c.Request.Context(), s, id, *in)
		},
	})

	h.mountReceived(ez)
	h.mountRecord(ez)
}

// mountReceived lists what a cause has received, one route per kind.
func (h *Causes) mountReceived(ez httpez.EZ) {
	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Donation]]{
		Method: http.MethodGet,
		Path:   "/cause/:id/donations",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Donation], error) {
			e, err := h.byCause(c, s, domain.KindDonation)
			if err != nil {
				return resp.Data[[]domain.Donation]{}, err
			}
			return resp.Data[[]domain.Donation]{Data: e.Donations}, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Volunteer]]{
		Method: http.MethodGet,
		Path:   "/cause/:id/volunteers",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Volunteer], error) {
			e, err := h.byCause(c, s, domain.KindVolunteer)
			if err != nil {
				return resp.Data[[]domain.Volunteer]{}, err
			}
			return resp.Data[[]domain.Volunteer]{Data: e.Volunteers}, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Feedback]]{
		Method: http.MethodGet,
		Path:   "/cause/:id/feedbacks",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Feedback], error) {
			e, err := h.byCause(c, s, domain.KindFeedback)
			if err != nil {
				return resp.Data[[]domain.Feedback]{}, err
			}
			return resp.Data[[]domain.Feedback]{Data: e.Feedbacks}, nil
		},
	})
}

func (h *Causes) byCause(c *gin.Context, s *domain.Session, kind domain.EntryKind) (*domain.Engagements, error) {
	id, err := httpez.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.Svc.Ledger.ListByCause(c.Request.Context(), s, id, kind)
}

// mountRecord wires the three engagement writes. The user defaults to the
// caller when the body leaves it out.
func (h *Causes) mountRecord(ez httpez.EZ) {
	httpez.RegisterAction(ez, httpez.Action[service.DonationInput, *domain.Donation]{
		Method: http.MethodPost,
		Path:   "/cause/:id/donate",
		Binder: httpez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, s *domain.Session, in *service.DonationInput) (*domain.Donation, error) {
			if err := target(c, s, &in.UserID, &in.CauseID); err != nil {
				return nil, err
			}
			return h.Svc.Ledger.RecordDonation(c.Request.Context(), s, *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.VolunteerInput, *domain.Volunteer]{
		Method: http.MethodPost,
		Path:   "/cause/:id/volunteer",
		Binder: httpez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, s *domain.Session, in *service.VolunteerInput) (*domain.Volunteer, error) {
			if err := target(c, s, &in.UserID, &in.CauseID); err != nil {
				return nil, err
			}
			return h.Svc.Ledger.RecordVolunteer(c.Request.Context(), s, *in)
		},
	})
	httpez.RegisterAction(ez, httpez.Action[service.FeedbackInput, *domain.Feedback]{
		Method: http.MethodPost,
		Path:   "/cause/:id/feedback",
		Binder: httpez.BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, s *domain.Session, in *service.FeedbackInput) (*domain.Feedback, error) {
			if err := target(c, s, &in.UserID, &in.CauseID); err != nil {
				return nil, err
			}
			return h.Svc.Ledger.RecordFeedback(c.Request.Context(), s, *in)
		},
	})
}

func target(c *gin.Context, s *domain.Session, userID, causeID *uint) error {
	id, err := httpez.ParamID(c, "id")
	if err != nil {
		return err
	}
	*causeID = id
	if *userID == 0 && s != nil {
		*userID = s.UserID
	}
	return nil
}
