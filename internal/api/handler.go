package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/services"
)

const (
	authCookieName  = "moodify_auth"
	contextUserKey  = "current_user"
	defaultTokenTTL = 7 * 24 * time.Hour
	rememberMeTTL   = 30 * 24 * time.Hour
)

// Dependencies are the services the HTTP layer dispatches to.
type Dependencies struct {
	Auth    *services.AuthService
	Account *services.AccountService
	Journal *services.JournalService
	Tasks   *services.TaskService
	Sleep   *services.SleepService
	Hub     *realtime.Hub
	Log     *logger.Logger
}

type Handler struct {
	secretKey      []byte
	cookieSecure   bool
	authService    *services.AuthService
	accountService *services.AccountService
	journalService *services.JournalService
	taskService    *services.TaskService
	sleepService   *services.SleepService
	hub            *realtime.Hub
	loginLimiter   *attemptLimiter
	log            *logger.Logger
	now            func() time.Time

	streams     context.Context
	stopStreams context.CancelFunc
}

func NewHandler(secretKey string, cookieSecure bool, deps Dependencies) (*Handler, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("secret key is required")
	}
	if deps.Auth == nil || deps.Account == nil || deps.Journal == nil || deps.Tasks == nil || deps.Sleep == nil {
		return nil, errors.New("all services are required")
	}
	if deps.Hub == nil {
		return nil, errors.New("realtime hub is required")
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	streams, stopStreams := context.WithCancel(context.Background())
	return &Handler{
		secretKey:      []byte(secretKey),
		cookieSecure:   cookieSecure,
		authService:    deps.Auth,
		accountService: deps.Account,
		journalService: deps.Journal,
		taskService:    deps.Tasks,
		sleepService:   deps.Sleep,
		hub:            deps.Hub,
		loginLimiter:   newAttemptLimiter(loginAttemptsLimit, loginAttemptsWindow),
		log:            log.With("component", "api"),
		now:            time.Now,
		streams:        streams,
		stopStreams:    stopStreams,
	}, nil
}

// CloseStreams ends every open event stream so a graceful shutdown does not
// wait on long-lived connections.
func (handler *Handler) CloseStreams() {
	handler.stopStreams()
}
