package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/dailydone/backend/domain"
	"github.com/dailydone/backend/pkg/dates"
	"github.com/dailydone/backend/pkg/httpcontext"
	"github.com/dailydone/backend/repository"
	"github.com/dailydone/backend/usecase/dueset"
)

type SummaryHandler struct {
	baseHandler
	users    repository.UserRepository
	resolver *dueset.UseCase
}

func NewSummaryHandler(users repository.UserRepository, resolver *dueset.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		users:       users,
		resolver:    resolver,
	}
}

// summaryResponse pairs the due counts with the streak snapshot the
// dashboard renders next to them.
type summaryResponse struct {
	Date          string            `json:"date"`
	Summary       domain.DueSummary `json:"summary"`
	TotalDue      int               `json:"total_due"`
	TotalMissed   int               `json:"total_missed"`
	StreakCurrent int               `json:"streak_current"`
	StreakBest    int               `json:"streak_best"`
	Degraded      bool              `json:"degraded,omitempty"`
}

// @Summary Due/missed counts and streak for a day
// @Tags summary
// @Router /api/v1/summary [get]
func (h *SummaryHandler) GetSummary(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.users.GetByID(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	day, err := h.resolveDay(ctx, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	resp := summaryResponse{
		Date:          day.String(),
		StreakCurrent: user.StreakCurrent,
		StreakBest:    user.StreakBest,
	}

	summary, err := h.resolver.Summary(stdCtx, user, day)
	switch {
	case err == nil:
		resp.Summary = summary
		resp.TotalDue = summary.TotalDue()
		resp.TotalMissed = summary.TotalMissed()
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		// Dashboard reads degrade to zero counts rather than failing the
		// whole page; the streak snapshot is still accurate.
		h.logger.Warn("summary degraded to zero counts",
			zap.String("user_id", userID),
			zap.Error(err))
		resp.Degraded = true
	default:
		h.respondError(ctx, err)
		return
	}

	h.respondSuccess(ctx, http.StatusOK, resp)
}

func (h *SummaryHandler) resolveDay(ctx *fasthttp.RequestCtx, user *domain.User) (dates.Day, error) {
	if raw := string(ctx.QueryArgs().Peek("date")); raw != "" {
		day, err := dates.Parse(raw)
		if err != nil {
			return dates.Day{}, domain.WrapError(domain.ErrCodeInvalid, "invalid date", err)
		}
		return day, nil
	}
	day, err := dates.Local(user.Timezone, time.Now())
	if err != nil {
		return dates.Day{}, domain.WrapError(domain.ErrCodeInvalid, "invalid timezone", err)
	}
	return day, nil
}
