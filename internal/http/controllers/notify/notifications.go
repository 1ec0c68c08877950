// Package notify expone el orquestador y los ledgers por HTTP.
package notify

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/notification"
	dto "github.com/dropDatabas3/mailgate/internal/http/dto/notify"
	httperrors "github.com/dropDatabas3/mailgate/internal/http/errors"
	"github.com/dropDatabas3/mailgate/internal/http/helpers"
	"github.com/dropDatabas3/mailgate/internal/notify"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
	"github.com/dropDatabas3/mailgate/internal/validation"
)

// Sender es el orquestador visto desde HTTP.
type Sender interface {
	Send(ctx context.Context, ev notification.Event) (notify.Result, error)
}

// NotificationsController maneja POST /v1/notifications y GET /v1/kinds.
type NotificationsController struct {
	sender Sender
}

func NewNotificationsController(sender Sender) *NotificationsController {
	return &NotificationsController{sender: sender}
}

// Send decodifica el evento y lo orquesta. Una falla del transporte no es
// error del orquestador pero se responde 502 con el Result completo para
// que el llamador vea el diagnóstico.
func (c *NotificationsController) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("notifications"),
		logger.Op("Send"),
	)

	var req dto.SendRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	kind, err := notification.ParseKind(req.Kind)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	payload, err := notification.DecodePayload(kind, req.Payload)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithDetail(err.Error()).WithCause(err))
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "api"
	}
	if !validation.ValidSource(source) {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("source inválido"))
		return
	}
	ev := notification.Event{
		Kind:                kind,
		Payload:             payload,
		UserID:              strings.TrimSpace(req.UserID),
		CustomerID:          strings.TrimSpace(req.CustomerID),
		Contact:             req.Contact,
		Source:              source,
		Language:            strings.TrimSpace(req.Language),
		IsAdminNotification: req.IsAdminNotification,
	}

	res, err := c.sender.Send(ctx, ev)
	if err != nil {
		appErr := mapError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("send failed", logger.Kind(string(kind)), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	helpers.WriteJSON(w, status, res)
}

type kindInfo struct {
	Kind           notification.Kind `json:"kind"`
	RequiredFields []string          `json:"requiredFields"`
}

// Kinds lista los kinds soportados con sus campos requeridos.
func (c *NotificationsController) Kinds(w http.ResponseWriter, _ *http.Request) {
	kinds := notification.Kinds()
	out := make([]kindInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, kindInfo{Kind: k, RequiredFields: k.RequiredFields()})
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"kinds": out})
}
