package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/chrisdamba/parksim/internal/simulator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Feed is the read side of a running simulator.
type Feed interface {
	Read() models.FeedSnapshot
	Nearest(k int) []models.ParkingLot
	Lot(id string) (models.ParkingLot, bool)
	Subscribe(handler simulator.SnapshotHandler) *simulator.Subscription
	Unsubscribe(sub *simulator.Subscription)
}

type Handler struct {
	feed     Feed
	upgrader websocket.Upgrader
}

func NewHandler(feed Feed) *Handler {
	return &Handler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewRouter wires the HTTP API onto a gin engine.
func NewRouter(feed Feed) *gin.Engine {
	h := NewHandler(feed)

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.GET("/healthz", h.health)
	api := r.Group("/api")
	{
		api.GET("/feed", h.getFeed)
		api.GET("/feed.geojson", h.getFeedGeoJSON)
		api.GET("/lots/:id", h.getLot)
		api.GET("/nearest", h.getNearest)
		api.GET("/ws", h.streamFeed)
	}
	return r
}

func NewServer(addr string, feed Feed) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(feed),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (h *Handler) health(c *gin.Context) {
	snapshot := h.feed.Read()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"loading":  snapshot.Loading,
		"sequence": snapshot.Sequence,
	})
}

func (h *Handler) getFeed(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Read())
}

func (h *Handler) getLot(c *gin.Context) {
	lot, ok := h.feed.Lot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "lot not found"})
		return
	}
	c.JSON(http.StatusOK, newLotResponse(lot))
}

func (h *Handler) getNearest(c *gin.Context) {
	k := 0
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
		k = n
	}

	lots := h.feed.Nearest(k)
	resp := make([]lotResponse, len(lots))
	for i, lot := range lots {
		resp[i] = newLotResponse(lot)
	}
	c.JSON(http.StatusOK, gin.H{
		"loading": h.feed.Read().Loading,
		"lots":    resp,
	})
}

type lotResponse struct {
	models.ParkingLot
	OccupancyRate float64 `json:"occupancyRate"`
}

func newLotResponse(lot models.ParkingLot) lotResponse {
	return lotResponse{ParkingLot: lot, OccupancyRate: lot.OccupancyRate()}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}
