package notify

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/mailgate/internal/domain/repository"
	dto "github.com/dropDatabas3/mailgate/internal/http/dto/notify"
	httperrors "github.com/dropDatabas3/mailgate/internal/http/errors"
	"github.com/dropDatabas3/mailgate/internal/http/helpers"
	"github.com/dropDatabas3/mailgate/internal/ledger"
	"github.com/dropDatabas3/mailgate/internal/observability/logger"
)

// Ledger es una instancia del ledger (verificación o reset).
type Ledger interface {
	Purpose() repository.LedgerPurpose
	Issue(ctx context.Context, req ledger.IssueRequest) (ledger.IssueResult, error)
	Consume(ctx context.Context, code string, opts ...ledger.ConsumeOption) (ledger.ConsumeResult, error)
}

// LedgerController expone Issue/Consume de un ledger.
type LedgerController struct {
	ledger Ledger
}

func NewLedgerController(l Ledger) *LedgerController {
	return &LedgerController{ledger: l}
}

// Issue emite un código y dispara el email. La respuesta nunca incluye el
// código.
func (c *LedgerController) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("ledger"),
		logger.Op("Issue"),
		logger.Purpose(string(c.ledger.Purpose())),
	)

	var req dto.IssueRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	req.Email = strings.TrimSpace(req.Email)
	if req.SubjectID == "" || req.Email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("subjectId y email son requeridos"))
		return
	}

	res, err := c.ledger.Issue(ctx, ledger.IssueRequest{
		SubjectID: req.SubjectID,
		Email:     req.Email,
		Name:      strings.TrimSpace(req.Name),
		Metadata:  req.Metadata,
		Language:  strings.TrimSpace(req.Language),
	})
	if err != nil {
		appErr := mapError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("issue failed", logger.SubjectID(req.SubjectID), logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	helpers.WriteJSON(w, http.StatusAccepted, dto.IssueResponse{
		ExpiresAt: res.ExpiresAt,
		MessageID: res.MessageID,
	})
}

// Consume canjea un código. Repetir el canje de un código ya usado responde
// 200 con alreadyVerified=true.
func (c *LedgerController) Consume(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(
		logger.Layer("controller"),
		logger.Component("ledger"),
		logger.Op("Consume"),
		logger.Purpose(string(c.ledger.Purpose())),
	)

	var req dto.ConsumeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("code es requerido"))
		return
	}

	var opts []ledger.ConsumeOption
	if req.NewPassword != "" {
		opts = append(opts, ledger.WithNewPassword(req.NewPassword))
	}

	res, err := c.ledger.Consume(ctx, code, opts...)
	if err != nil {
		appErr := mapError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("consume failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
