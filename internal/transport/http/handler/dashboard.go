package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"causebridge/internal/domain"
	"causebridge/internal/service"
	httpez "causebridge/internal/transport/http/ez"
)

type DashboardModule struct{ Env }

func (*DashboardModule) Priority() int { return 40 }

// MountAPI leaves the session check to the service so an absent session and
// an expired one are told apart.
func (h *DashboardModule) MountAPI(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g, h.log()), httpez.Action[struct{}, *service.Dashboard]{
		Method: http.MethodGet,
		Path:   "/dashboard",
		Handler: func(c *gin.Context, s *domain.Session, _ *struct{}) (*service.Dashboard, error) {
			if s == nil {
				if err := sessionErr(c); err != nil {
					return nil, err
				}
			}
			return h.Svc.Dashboard.Dashboard(c.Request.Context(), s)
		},
	})
}
