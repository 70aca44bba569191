// Package mockapi is a scriptable stand-in for the PropertyForge backend.
// It serves the address search, parcel resolution and status endpoints
// plus the report resources, from a fixed set of properties.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/logging"
)

// Property is one scripted parcel.
type Property struct {
	Suggestion api.AddressSuggestion
	ParcelID   string
	// Statuses are served in order, one per poll; the last repeats.
	// An empty script completes immediately.
	Statuses  []api.ProcessingStatus
	Valuation api.PropertyValuation
	ROI       api.PropertyROI
	Flood     []api.FloodZone
	Disasters []api.DisasterRisk
}

// Options configures a Server.
type Options struct {
	// Credentials the server insists on. Empty means not checked.
	BearerToken string
	APIKey      string
	// Properties defaults to Fixtures().
	Properties []Property
	// Latency is added to every request.
	Latency time.Duration
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Server serves the fake API.
type Server struct {
	engine *gin.Engine
	opts   Options
	props  []Property

	mu       sync.Mutex
	polls    map[string]int
	requests map[string]int
}

// New builds a Server.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	props := opts.Properties
	if props == nil {
		props = Fixtures()
	}
	s := &Server{
		engine:   gin.New(),
		opts:     opts,
		props:    props,
		polls:    make(map[string]int),
		requests: make(map[string]int),
	}
	s.engine.Use(gin.Recovery(), s.count, s.auth)
	if opts.Latency > 0 {
		s.engine.Use(func(c *gin.Context) {
			select {
			case <-time.After(opts.Latency):
			case <-c.Request.Context().Done():
			}
			c.Next()
		})
	}

	g := s.engine.Group("/api")
	g.GET("/address", s.searchAddresses)
	g.GET("/parcel-id-by-address", s.resolveParcel)
	g.GET("/parcel-id-status", s.parcelStatus)
	g.GET("/property_valuation/:id", s.valuation)
	g.GET("/property_roi_potential/:id", s.roiPotential)
	g.GET("/property_flood_risk/:id", s.floodRisk)
	g.GET("/property_disasters_risks/:id", s.disasterRisks)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Requests returns how many requests hit path (auth failures included).
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Polls returns how many status polls parcelID received.
func (s *Server) Polls(parcelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls[parcelID]
}

// Reset rewinds every status script and clears counters.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls = make(map[string]int)
	s.requests = make(map[string]int)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.Info("mock api listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.requests[c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) auth(c *gin.Context) {
	if want := s.opts.BearerToken; want != "" && c.GetHeader("Authorization") != "Bearer "+want {
		fail(c, http.StatusUnauthorized, "invalid bearer token")
		return
	}
	if want := s.opts.APIKey; want != "" && c.GetHeader("x-api-key") != want {
		fail(c, http.StatusUnauthorized, "invalid api key")
		return
	}
	c.Next()
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func (s *Server) searchAddresses(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("search")))
	if q == "" {
		fail(c, http.StatusBadRequest, "search is required")
		return
	}

	out := []api.AddressSuggestion{}
	for _, p := range s.props {
		sg := p.Suggestion
		if strings.Contains(strings.ToLower(sg.Display()), q) || strings.Contains(strings.ToLower(sg.Address), q) {
			out = append(out, sg)
		}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

func (s *Server) resolveParcel(c *gin.Context) {
	addr := strings.TrimSpace(c.Query("address"))
	if addr == "" {
		fail(c, http.StatusBadRequest, "address is required")
		return
	}
	p, ok := s.byAddress(addr)
	if !ok {
		fail(c, http.StatusNotFound, "address not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"parcel_id": p.ParcelID})
}

func (s *Server) parcelStatus(c *gin.Context) {
	id := c.Query("parcel_id")
	p, ok := s.byID(id)
	if !ok {
		fail(c, http.StatusNotFound, "parcel not found")
		return
	}

	s.mu.Lock()
	n := s.polls[id]
	s.polls[id]++
	s.mu.Unlock()

	st := api.ProcessingStatus{Status: api.StatusCompleted}
	if len(p.Statuses) > 0 {
		st = p.Statuses[min(n, len(p.Statuses)-1)]
	}
	st.ParcelID = id
	c.JSON(http.StatusOK, st)
}

func (s *Server) valuation(c *gin.Context) {
	p, ok := s.byID(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "parcel not found")
		return
	}
	v := p.Valuation
	v.ParcelID = p.ParcelID
	c.JSON(http.StatusOK, v)
}

func (s *Server) roiPotential(c *gin.Context) {
	p, ok := s.byID(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "parcel not found")
		return
	}
	// Field names follow the backend payload, not api.PropertyROI.
	r := p.ROI
	c.JSON(http.StatusOK, gin.H{
		"parcel_id":                               p.ParcelID,
		"potential_rent_income":                   r.PotentialRentIncome,
		"estimated_renovation_cost":               r.EstimatedRenovationCost,
		"estimated_eviction_cost":                 r.EstimatedEvictionCost,
		"market_value":                            r.MarketValue,
		"net_annual_income":                       r.NetAnnualIncome,
		"roi_potential_percent":                   r.ROIPotentialPercent,
		"range_low":                               r.RangeLow,
		"range_high":                              r.RangeHigh,
		"calculated_at":                           r.CalculatedAt,
		"num_comps":                               r.NumComps,
		"market_position_percent":                 r.MarketPositionScore,
		"market_position_category":                r.MarketPosition,
		"market_position_vs_neighborhood_percent": r.VsNeighborhoodPercent,
		"market_position_vs_neighborhood_label":   r.VsNeighborhoodLabel,
		"risk_category":                           r.RiskCategory,
	})
}

func (s *Server) floodRisk(c *gin.Context) {
	p, ok := s.byID(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "parcel not found")
		return
	}
	zones := make([]api.FloodZone, 0, len(p.Flood))
	for _, z := range p.Flood {
		z.ParcelID = p.ParcelID
		zones = append(zones, z)
	}
	c.JSON(http.StatusOK, zones)
}

func (s *Server) disasterRisks(c *gin.Context) {
	p, ok := s.byID(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "parcel not found")
		return
	}
	risks := make([]api.DisasterRisk, 0, len(p.Disasters))
	for _, d := range p.Disasters {
		d.ParcelID = p.ParcelID
		risks = append(risks, d)
	}
	c.JSON(http.StatusOK, risks)
}

func (s *Server) byAddress(addr string) (Property, bool) {
	for _, p := range s.props {
		if strings.EqualFold(p.Suggestion.Display(), addr) || strings.EqualFold(p.Suggestion.Address, addr) {
			return p, true
		}
	}
	return Property{}, false
}

func (s *Server) byID(id string) (Property, bool) {
	if id == "" {
		return Property{}, false
	}
	for _, p := range s.props {
		if p.ParcelID == id {
			return p, true
		}
	}
	return Property{}, false
}
