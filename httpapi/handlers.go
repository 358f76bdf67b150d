package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lbclottery/domain/entities"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LedgerView is the JSON form of a ledger summary
type LedgerView struct {
	GuildID          string     `json:"guild_id"`
	Round            int64      `json:"round"`
	Phase            string     `json:"phase"`
	Administrator    string     `json:"administrator"`
	CustodyAccount   string     `json:"custody_account"`
	TokenAddress     string     `json:"token_address"`
	TicketPrice      int64      `json:"ticket_price"`
	MaxBuyLimit      int64      `json:"max_buy_limit"`
	TicketsSold      int64      `json:"tickets_sold"`
	PrizePool        int64      `json:"prize_pool"`
	CustodyBalance   int64      `json:"custody_balance"`
	RoundDeadline    time.Time  `json:"round_deadline"`
	SecondsRemaining int64      `json:"seconds_remaining"`
	IsPaused         bool       `json:"is_paused"`
	PausedAt         *time.Time `json:"paused_at,omitempty"`
}

// EventView is the JSON form of an audit record
type EventView struct {
	ID        int64                  `json:"id"`
	Round     int64                  `json:"round"`
	Kind      string                 `json:"kind"`
	Actor     string                 `json:"actor"`
	Amount    int64                  `json:"amount"`
	Count     int64                  `json:"count"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// AccountView is the JSON form of a token account
type AccountView struct {
	Account      string `json:"account"`
	TokenAddress string `json:"token_address"`
	Balance      int64  `json:"balance"`
	Allowance    int64  `json:"allowance"`
}

type handler struct {
	ledger LedgerReader
	checks map[string]HealthCheck
}

// RegisterRoutes registers all the status routes
func (h *handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	ledgers := router.Group("/ledgers/:guildID")
	{
		ledgers.GET("", h.GetLedger)
		ledgers.GET("/events", h.ListEvents)
		ledgers.GET("/accounts/:accountID", h.GetAccount)
	}
}

// Health reports OK when every registered check passes
func (h *handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, Response{Success: healthy, Data: status})
}

// GetLedger returns the guild's ledger summary
func (h *handler) GetLedger(c *gin.Context) {
	guildID, ok := int64Param(c, "guildID")
	if !ok {
		return
	}

	summary, err := h.ledger.GetSummary(c.Request.Context(), guildID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: newLedgerView(summary)})
}

// ListEvents returns the guild's most recent audit records, newest first
func (h *handler) ListEvents(c *gin.Context) {
	guildID, ok := int64Param(c, "guildID")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, Response{Error: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	ledgerEvents, err := h.ledger.ListEvents(c.Request.Context(), guildID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	views := make([]EventView, 0, len(ledgerEvents))
	for _, e := range ledgerEvents {
		views = append(views, EventView{
			ID:        e.ID,
			Round:     e.Round,
			Kind:      string(e.Kind),
			Actor:     strconv.FormatInt(e.ActorID, 10),
			Amount:    e.Amount,
			Count:     e.Count,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// GetAccount returns an account's balance and allowance for the guild's token
func (h *handler) GetAccount(c *gin.Context) {
	guildID, ok := int64Param(c, "guildID")
	if !ok {
		return
	}
	accountID, ok := int64Param(c, "accountID")
	if !ok {
		return
	}

	info, err := h.ledger.GetAccount(c.Request.Context(), guildID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: AccountView{
		Account:      strconv.FormatInt(info.Account, 10),
		TokenAddress: info.Token.String(),
		Balance:      info.Balance,
		Allowance:    info.Allowance,
	}})
}

func newLedgerView(summary *entities.LedgerSummary) LedgerView {
	state := summary.State
	view := LedgerView{
		GuildID:          strconv.FormatInt(state.GuildID, 10),
		Round:            state.Round,
		Phase:            string(summary.Phase),
		Administrator:    strconv.FormatInt(state.Administrator, 10),
		CustodyAccount:   strconv.FormatInt(state.CustodyAccount, 10),
		TokenAddress:     state.TokenAddress.String(),
		TicketPrice:      state.TicketPrice,
		MaxBuyLimit:      state.MaxBuyLimit,
		TicketsSold:      state.TicketsSold,
		PrizePool:        state.PrizePool,
		CustodyBalance:   summary.CustodyBalance,
		RoundDeadline:    state.RoundDeadline,
		SecondsRemaining: int64(summary.TimeRemaining / time.Second),
		IsPaused:         state.IsPaused,
	}
	if state.IsPaused && !state.PauseTimestamp.IsZero() {
		pausedAt := state.PauseTimestamp
		view.PausedAt = &pausedAt
	}
	return view
}

// int64Param parses a snowflake path parameter, answering 400 when malformed
func int64Param(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: name + " must be an integer"})
		return 0, false
	}
	return value, true
}

func respondWithError(c *gin.Context, err error) {
	if errors.Is(err, entities.ErrLedgerNotFound) {
		c.JSON(http.StatusNotFound, Response{Error: err.Error()})
		return
	}

	log.WithFields(log.Fields{
		"path":  c.FullPath(),
		"error": err,
	}).Error("Status API request failed")
	c.JSON(http.StatusInternalServerError, Response{Error: "internal error"})
}
