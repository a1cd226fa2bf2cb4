package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cory-johannsen/basecamp/internal/expedition"
	"github.com/cory-johannsen/basecamp/internal/game/biome"
	"github.com/cory-johannsen/basecamp/internal/game/combat"
	"github.com/cory-johannsen/basecamp/internal/game/creature"
	"github.com/cory-johannsen/basecamp/internal/game/event"
	"github.com/cory-johannsen/basecamp/internal/game/ledger"
	"github.com/cory-johannsen/basecamp/internal/game/loot"
	"github.com/cory-johannsen/basecamp/internal/game/player"
)

// Expedition is the service surface the HTTP API exposes.
type Expedition interface {
	InitPlayer(ctx context.Context, playerID string) (player.Stats, creature.UserCreature, error)
	PlayerStats(ctx context.Context, playerID string) (player.Stats, error)
	DailyProgress(ctx context.Context, playerID, date string) (ledger.DailyProgress, error)
	RecordHabitPoints(ctx context.Context, playerID, date string, points int) (ledger.DailyProgress, error)
	ListBiomes(ctx context.Context, playerID string, all bool) ([]biome.Listing, error)
	Inventory(ctx context.Context, playerID string) ([]expedition.InventoryEntry, error)
	UseRun(ctx context.Context, playerID, biomeID, date string) (expedition.RunResult, error)
	StartCombat(ctx context.Context, playerID, encounterID string) (combat.State, error)
	CombatState(playerID string) (combat.State, error)
	CombatAction(ctx context.Context, playerID string, req expedition.ActionRequest) (expedition.CombatResult, error)
	Creatures(ctx context.Context, playerID string) ([]creature.UserCreature, error)
	PartyAdd(ctx context.Context, playerID, creatureID string, position *int) ([]creature.UserCreature, error)
	PartyRemove(ctx context.Context, playerID, creatureID string) ([]creature.UserCreature, error)
}

// Handler serves the expedition API.
type Handler struct {
	svc Expedition
	now func() time.Time
}

type initResponse struct {
	Player  player.Stats          `json:"player"`
	Starter creature.UserCreature `json:"starter"`
}

type habitPointsRequest struct {
	HabitPoints *int `json:"habitPoints" binding:"required"`
}

type runRequest struct {
	BiomeID string `json:"biomeId" binding:"required"`
	// Date defaults to the current UTC day.
	Date string `json:"date"`
}

type lootView struct {
	Item     *loot.Item  `json:"item"`
	Quantity int         `json:"quantity"`
	Rarity   loot.Rarity `json:"rarity"`
}

type runResponse struct {
	Progress  ledger.DailyProgress  `json:"progress"`
	Kind      string                `json:"kind"`
	Loot      *lootView             `json:"loot,omitempty"`
	Encounter *expedition.Encounter `json:"encounter,omitempty"`
	Wild      *creature.Stats       `json:"wildStats,omitempty"`
}

type startCombatRequest struct {
	EncounterID string `json:"encounterId" binding:"required"`
}

type partyAddRequest struct {
	Position *int `json:"position"`
}

func (h *Handler) initPlayer(c *gin.Context) {
	stats, starter, err := h.svc.InitPlayer(c.Request.Context(), c.Param("player"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, initResponse{Player: stats, Starter: starter})
}

func (h *Handler) playerStats(c *gin.Context) {
	stats, err := h.svc.PlayerStats(c.Request.Context(), c.Param("player"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) dailyProgress(c *gin.Context) {
	p, err := h.svc.DailyProgress(c.Request.Context(), c.Param("player"), c.Param("date"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) recordHabitPoints(c *gin.Context) {
	var req habitPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.RecordHabitPoints(c.Request.Context(), c.Param("player"), c.Param("date"), *req.HabitPoints)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) listBiomes(c *gin.Context) {
	all := c.DefaultQuery("all", "true") != "false"
	biomes, err := h.svc.ListBiomes(c.Request.Context(), c.Param("player"), all)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"biomes": biomes})
}

func (h *Handler) inventory(c *gin.Context) {
	inv, err := h.svc.Inventory(c.Request.Context(), c.Param("player"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": inv})
}

func (h *Handler) useRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Date == "" {
		req.Date = h.now().UTC().Format(time.DateOnly)
	}
	res, err := h.svc.UseRun(c.Request.Context(), c.Param("player"), req.BiomeID, req.Date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	out := runResponse{Progress: res.Progress, Kind: res.Result.Kind(), Encounter: res.Encounter}
	switch r := res.Result.(type) {
	case event.Loot:
		out.Loot = &lootView{Item: r.Item, Quantity: r.Quantity, Rarity: r.Rarity}
	case event.Encounter:
		out.Wild = &r.Stats
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) startCombat(c *gin.Context) {
	var req startCombatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	st, err := h.svc.StartCombat(c.Request.Context(), c.Param("player"), req.EncounterID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) combatState(c *gin.Context) {
	st, err := h.svc.CombatState(c.Param("player"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) combatAction(c *gin.Context) {
	var req expedition.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.CombatAction(c.Request.Context(), c.Param("player"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) creatures(c *gin.Context) {
	cs, err := h.svc.Creatures(c.Request.Context(), c.Param("player"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"creatures": cs})
}

func (h *Handler) partyAdd(c *gin.Context) {
	var req partyAddRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	party, err := h.svc.PartyAdd(c.Request.Context(), c.Param("player"), c.Param("creature"), req.Position)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party": party})
}

func (h *Handler) partyRemove(c *gin.Context) {
	party, err := h.svc.PartyRemove(c.Request.Context(), c.Param("player"), c.Param("creature"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"party": party})
}

// errNotFound is returned for unmatched routes.
var errNotFound = errors.New("route not found")
