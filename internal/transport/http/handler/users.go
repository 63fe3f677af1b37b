package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	"causebridge/internal/service"
	httpez "causebridge/internal/transport/http/ez"
	resp "causebridge/internal/transport/http/response"
)

type Users struct{ Env }

func (*Users) Priority() int { return 30 }

func (h *Users) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g.Group("/user"), h.log())

	httpez.RegisterAction(ez, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/:id",
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*domain.User, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.Svc.Registry.UserByID(c.Request.Context(), s, id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UserPatch, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/:id",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, in *service.UserPatch) (*domain.User, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return nil, err
			}
			return h.Svc.Registry.UpdateUser(c.Request.Context(), s, id, *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Cause]]{
		Method: http.MethodGet,
		Path:   "/:id/causes",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Cause], error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return resp.Data[[]domain.Cause]{}, err
			}
			list, err := h.Svc.Registry.OwnedCauses(c.Request.Context(), s, id)
			return resp.Data[[]domain.Cause]{Data: list}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Donation]]{
		Method: http.MethodGet,
		Path:   "/:id/donations",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Donation], error) {
			e, err := h.byUser(c, s, domain.KindDonation)
			if err != nil {
				return resp.Data[[]domain.Donation]{}, err
			}
			return resp.Data[[]domain.Donation]{Data: e.Donations}, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Volunteer]]{
		Method: http.MethodGet,
		Path:   "/:id/volunteers",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Volunteer], error) {
			e, err := h.byUser(c, s, domain.KindVolunteer)
			if err != nil {
				return resp.Data[[]domain.Volunteer]{}, err
			}
			return resp.Data[[]domain.Volunteer]{Data: e.Volunteers}, nil
		},
	})
	httpez.RegisterAction(ez, httpez.Action[struct{}, resp.Data[[]domain.Feedback]]{
		Method: http.MethodGet,
		Path:   "/:id/feedbacks",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (resp.Data[[]domain.Feedback], error) {
			e, err := h.byUser(c, s, domain.KindFeedback)
			if err != nil {
				return resp.Data[[]domain.Feedback]{}, err
			}
			return resp.Data[[]domain.Feedback]{Data: e.Feedbacks}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, httpez.NoContent]{
		Method: http.MethodDelete,
		Path:   "/cause/:id",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (httpez.NoContent, error) {
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return httpez.NoContent{}, err
			}
			return httpez.NoContent{}, h.Svc.Registry.DeleteCause(c.Request.Context(), s, id)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[struct{}, httpez.NoContent]{
		Method: http.MethodDelete,
		Path:   "/:type/:id",
		Auth:   true,
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (httpez.NoContent, error) {
			kind, ok := domain.ParseEntryKind(c.Param("type"))
			if !ok {
				return httpez.NoContent{}, domain.Validation("type must be donation, volunteer or feedback")
			}
			id, err := httpez.ParamID(c, "id")
			if err != nil {
				return httpez.NoContent{}, err
			}
			return httpez.NoContent{}, h.Svc.Ledger.DeleteEntry(c.Request.Context(), s, kind, id)
		},
	})
}

func (h *Users) byUser(c *gin.Context, s *domain.Session, kind domain.EntryKind) (*domain.Engagements, error) {
	id, err := httpez.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	return h.Svc.Ledger.ListByUser(c.Request.Context(), s, id, kind)
}
