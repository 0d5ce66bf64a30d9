package lab

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/lab-rl/types"
)

// simulatorAction is an action affordance exposed by the simulator
type simulatorAction struct {
	Name  string
	Type  string
	Field string
}

var simulatorActions = []simulatorAction{
	{Name: "setZ1Light", Type: SetZ1Light, Field: Z1Light},
	{Name: "setZ2Light", Type: SetZ2Light, Field: Z2Light},
	{Name: "setZ1Blinds", Type: SetZ1Blinds, Field: Z1Blinds},
	{Name: "setZ2Blinds", Type: SetZ2Blinds, Field: Z2Blinds},
}

// SimulatorServer serves a Simulator through a thing description
type SimulatorServer struct {
	Addr      string
	ctx       context.Context
	server    *http.Server
	simulator *Simulator
	logger    types.Logger
}

func NewSimulatorServer(ctx context.Context, addr string, simulator *Simulator, logger types.Logger) *SimulatorServer {
	if logger == nil {
		logger = types.NewNullLogger()
	}
	s := &SimulatorServer{
		Addr:      addr,
		ctx:       ctx,
		simulator: simulator,
		logger:    logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/td", s.handleTD)
	r.GET("/properties/status", s.handleStatus)
	r.POST("/actions/:name", s.handleAction)
	r.POST("/reset", s.handleReset)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func (s *SimulatorServer) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on Addr until the context is done
func (s *SimulatorServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("simulator server: %s", err)
		}
	}()
	go s.shutdownOnDone()
}

// Serve is Start on an existing listener
func (s *SimulatorServer) Serve(ln net.Listener) {
	s.Addr = ln.Addr().String()
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("simulator server: %s", err)
		}
	}()
	go s.shutdownOnDone()
}

// URL of the thing description, once started
func (s *SimulatorServer) URL() string {
	return "http://" + s.Addr + "/td"
}

func (s *SimulatorServer) shutdownOnDone() {
	<-s.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.server.Shutdown(ctx)
}

// SimulatorThingDescription describes the simulator served at base
func SimulatorThingDescription(base string) *ThingDescription {
	status := &PropertyAffordance{
		DataSchema: DataSchema{
			Types:      StringList{StatusType},
			Type:       "object",
			Properties: make(map[string]*DataSchema),
		},
		Forms: []*Form{{Href: "/properties/status", Op: StringList{OpReadProperty}, Method: http.MethodGet, ContentType: "application/json"}},
	}
	for _, f := range StatusFields {
		t := "number"
		switch f.Axis {
		case Z1Light, Z2Light, Z1Blinds, Z2Blinds:
			t = "boolean"
		}
		status.Properties[f.Axis] = &DataSchema{Types: StringList{f.Type}, Type: t}
	}

	actions := make(map[string]*ActionAffordance)
	for _, a := range simulatorActions {
		actions[a.Name] = &ActionAffordance{
			Types: StringList{a.Type},
			Input: &DataSchema{
				Type:       "object",
				Properties: map[string]*DataSchema{a.Field: {Type: "boolean"}},
			},
			Forms: []*Form{{Href: "/actions/" + a.Name, Op: StringList{OpInvokeAction}, Method: http.MethodPost, ContentType: "application/json"}},
		}
	}
	actions["reset"] = &ActionAffordance{
		Types: StringList{ResetType},
		Forms: []*Form{{Href: "/reset", Op: StringList{OpInvokeAction}, Method: http.MethodPost}},
	}

	return &ThingDescription{
		Context:    "https://www.w3.org/2019/wot/td/v1",
		Title:      "Interactions Lab Simulator",
		Base:       base,
		Properties: map[string]*PropertyAffordance{"status": status},
		Actions:    actions,
	}
}

func (s *SimulatorServer) handleTD(c *gin.Context) {
	c.JSON(http.StatusOK, SimulatorThingDescription("http://"+c.Request.Host))
}

func (s *SimulatorServer) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.simulator.Status())
}

func (s *SimulatorServer) handleAction(c *gin.Context) {
	name := c.Param("name")
	var action *simulatorAction
	for i := range simulatorActions {
		if simulatorActions[i].Name == name {
			action = &simulatorActions[i]
			break
		}
	}
	if action == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such action"})
		return
	}
	payload := make(map[string]bool)
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	value, ok := payload[action.Field]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing field " + action.Field})
		return
	}
	if err := s.simulator.Set(action.Field, value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.logger.Debugf("simulator: %s set to %v", action.Field, value)
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *SimulatorServer) handleReset(c *gin.Context) {
	s.simulator.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
