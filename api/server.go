package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/lab-rl/policies"
	"github.com/zeu5/lab-rl/store"
	"github.com/zeu5/lab-rl/types"
)

var (
	errNotInitialized = errors.New("environment not initialized")
	errNoStore        = errors.New("no table store configured")
)

// InitializeRequest describes the environment to learn on
type InitializeRequest struct {
	URL       string `json:"url"`
	ResetPath string `json:"reset_path"`
}

// EnvironmentFactory builds the environment for an initialize request
type EnvironmentFactory func(context.Context, InitializeRequest) (types.Environment, error)

type TrainRequest struct {
	Goal     []int    `json:"goal"`
	Episodes *int     `json:"episodes"`
	Alpha    *float64 `json:"alpha"`
	Gamma    *float64 `json:"gamma"`
	Epsilon  *float64 `json:"epsilon"`
	Reward   *float64 `json:"reward"`
	Horizon  *int     `json:"horizon"`
}

// params fills the fields missing from the request with the defaults
func (r TrainRequest) params(def types.LearningParams) types.LearningParams {
	p := def
	if r.Episodes != nil {
		p.Episodes = *r.Episodes
	}
	if r.Alpha != nil {
		p.Alpha = *r.Alpha
	}
	if r.Gamma != nil {
		p.Gamma = *r.Gamma
	}
	if r.Epsilon != nil {
		p.Epsilon = *r.Epsilon
	}
	if r.Reward != nil {
		p.Reward = *r.Reward
	}
	if r.Horizon != nil {
		p.Horizon = *r.Horizon
	}
	return p
}

type ActionRequest struct {
	Goal  []int         `json:"goal"`
	State []interface{} `json:"state"`
}

type Config struct {
	Addr    string
	Factory EnvironmentFactory
	// Defaults for the learning parameters missing from train requests
	Defaults types.LearningParams
	// Store is optional, without it the table routes fail
	Store   *store.TableStore
	Options []policies.Option
	Logger  types.Logger
}

// Server exposes the learner over HTTP. Initialization, training and
// table loading are serialized since they drive the one environment.
type Server struct {
	Addr   string
	server *http.Server
	config Config
	logger types.Logger

	lock    *sync.Mutex
	learner *policies.QLearner
}

func NewServer(config Config) *Server {
	if config.Logger == nil {
		config.Logger = types.NewNullLogger()
	}
	s := &Server{
		Addr:   config.Addr,
		config: config,
		logger: config.Logger,
		lock:   new(sync.Mutex),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/initialize", s.handleInitialize)
	r.POST("/train", s.handleTrain)
	r.POST("/action", s.handleAction)
	r.GET("/state", s.handleState)
	r.POST("/tables/save", s.handleSave)
	r.POST("/tables/load", s.handleLoad)
	s.server = &http.Server{
		Addr:    config.Addr,
		Handler: r,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the context is done
func (s *Server) Start(ctx context.Context) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("api server: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.server.Shutdown(sctx)
	}()
}

// Initialize builds the environment and a fresh learner, dropping every trained table
func (s *Server) Initialize(ctx context.Context, req InitializeRequest) (types.Environment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	env, err := s.config.Factory(ctx, req)
	if err != nil {
		return nil, err
	}
	s.learner = policies.NewQLearner(env, append([]policies.Option{policies.WithLogger(s.logger)}, s.config.Options...)...)
	return env, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrUntrainedGoal):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, types.ErrInvalidGoal), errors.Is(err, types.ErrInvalidParams), errors.Is(err, types.ErrUnknownState):
		return http.StatusBadRequest
	case errors.Is(err, errNotInitialized):
		return http.StatusConflict
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.Errorf("%s %s: %s", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) handleInitialize(c *gin.Context) {
	req := InitializeRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	env, err := s.Initialize(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"states":  env.StateSpace().Len(),
		"actions": env.ActionSpace().Len(),
	})
}

func (s *Server) handleTrain(c *gin.Context) {
	req := TrainRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.learner == nil {
		s.fail(c, errNotInitialized)
		return
	}
	report, err := s.learner.Train(c.Request.Context(), types.Goal(req.Goal), req.params(s.config.Defaults))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"goal":     report.Goal,
		"key":      report.Key,
		"episodes": len(report.Traces),
		"steps":    report.Steps(),
		"returns":  report.Returns(),
	})
}

func (s *Server) handleAction(c *gin.Context) {
	req := ActionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	s.lock.Lock()
	learner := s.learner
	s.lock.Unlock()
	if learner == nil {
		s.fail(c, errNotInitialized)
		return
	}
	action, err := learner.BestAction(types.Goal(req.Goal), req.State)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tag":          action.Tag,
		"payload_tags": action.PayloadTags,
		"payload":      action.Payload,
	})
}

func (s *Server) handleState(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.learner == nil {
		s.fail(c, errNotInitialized)
		return
	}
	obs, decoded, err := s.learner.CurrentState(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"index": obs.Index,
		"raw":   obs.State,
		"state": decoded,
	})
}

func (s *Server) handleSave(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.ready(); err != nil {
		s.fail(c, err)
		return
	}
	goals, err := s.config.Store.SaveLearner(c.Request.Context(), s.learner)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (s *Server) handleLoad(c *gin.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.ready(); err != nil {
		s.fail(c, err)
		return
	}
	goals, err := s.config.Store.LoadLearner(c.Request.Context(), s.learner)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (s *Server) ready() error {
	if s.learner == nil {
		return errNotInitialized
	}
	if s.config.Store == nil {
		return errNoStore
	}
	return nil
}
