// This is a http type of reporter.
// It fetches data from the oracle's durable state
// and publishes it on the http routes.

package reporter

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lockmint-io/bridge-oracle/state"
)

const (
	ROUTE_HELLO  = "/hello"
	ROUTE_STATUS = "/status"
	ROUTE_NONCE  = "/nonce/:nonce"
)

// PhaseSource exposes what the orchestrator is currently doing.
type PhaseSource interface {
	Phase() string
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	statedb *state.StateDB
	phases  PhaseSource // optional
}

func NewHttpReporter(serverIP string, serverPort string, statedb *state.StateDB, phases PhaseSource) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		statedb:    statedb,
		phases:     phases,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Define routes & handlers
	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_STATUS, h.Status)
	router.GET(ROUTE_NONCE, h.Nonce)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Fetch the scan cursor and nonce count from statedb
// Publish on the route
func (h *HttpReporter) Status(c *gin.Context) {
	block, err := h.statedb.LastScannedBlock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, err := h.statedb.CountProcessedNonces()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{
		"last_scanned_block": block,
		"processed_nonces":   count,
	}
	if h.phases != nil {
		body["phase"] = h.phases.Phase()
	}
	c.JSON(http.StatusOK, body)
}

// Report whether one nonce has been dispatched.
func (h *HttpReporter) Nonce(c *gin.Context) {
	nonce, err := strconv.ParseUint(c.Param("nonce"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nonce must be a non-negative integer"})
		return
	}

	ok, err := h.statedb.HasProcessedNonce(nonce)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "processed": ok})
}
