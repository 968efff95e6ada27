package api

import (
	"math/rand"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/roundmeet/roundmeet-api/docs"
	v1 "github.com/roundmeet/roundmeet-api/internal/api/handler/v1"
	"github.com/roundmeet/roundmeet-api/internal/api/middleware"
	"github.com/roundmeet/roundmeet-api/internal/config"
	"github.com/roundmeet/roundmeet-api/internal/repository"
	"github.com/roundmeet/roundmeet-api/internal/repository/dao"
	"github.com/roundmeet/roundmeet-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	notifier service.Notifier
	rnd      *rand.Rand
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:   conf,
		Router:   engine,
		notifier: service.NewLogNotifier(),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	sessionHandler := s.initSessionHandler(db)
	roundHandler := s.initRoundHandler(db)
	registrationHandler := s.initRegistrationHandler(db)
	matchHandler := s.initMatchHandler(db)
	contactHandler := s.initContactHandler(db)
	s.MountHandlers(authHandler, userHandler, sessionHandler, roundHandler, registrationHandler, matchHandler, contactHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initSessionHandler(db *gorm.DB) *v1.SessionHandler {
	sessionDAO := dao.NewSessionDAO(db)
	repo := repository.NewSessionRepository(sessionDAO)
	svc := service.NewSessionService(repo)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewSessionHandler(svc, uSvc)

	return handler
}

func (s *Server) initRoundHandler(db *gorm.DB) *v1.RoundHandler {
	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	sessionRepo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	svc := service.NewRoundService(roundRepo, sessionRepo, registrationRepo, s.notifier)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewRoundHandler(s.Config.API, svc, uSvc)

	return handler
}

func (s *Server) initRegistrationHandler(db *gorm.DB) *v1.RegistrationHandler {
	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	matchRepo := repository.NewMatchRepository(dao.NewMatchDAO(db))
	svc := service.NewRegistrationService(roundRepo, registrationRepo, matchRepo, s.notifier)
	sessionRepo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	roundSvc := service.NewRoundService(roundRepo, sessionRepo, registrationRepo, s.notifier)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewRegistrationHandler(s.Config.API, svc, roundSvc, uSvc)

	return handler
}

func (s *Server) initMatchHandler(db *gorm.DB) *v1.MatchHandler {
	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	sessionRepo := repository.NewSessionRepository(dao.NewSessionDAO(db))
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	matchRepo := repository.NewMatchRepository(dao.NewMatchDAO(db))
	svc := service.NewMatchingService(roundRepo, sessionRepo, registrationRepo, matchRepo, s.notifier, s.rnd)
	rSvc := service.NewRendezvousService(matchRepo, registrationRepo, s.notifier, s.Config.Rounds.DecoyCount, s.rnd)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewMatchHandler(s.Config.API, svc, rSvc, uSvc)

	return handler
}

func (s *Server) initContactHandler(db *gorm.DB) *v1.ContactHandler {
	contactRepo := repository.NewContactRepository(dao.NewContactDAO(db))
	matchRepo := repository.NewMatchRepository(dao.NewMatchDAO(db))
	roundRepo := repository.NewRoundRepository(dao.NewRoundDAO(db))
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	revealDelay := time.Duration(s.Config.Rounds.RevealDelayMinutes) * time.Minute
	svc := service.NewContactService(contactRepo, matchRepo, roundRepo, registrationRepo, userRepo, revealDelay)
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewContactHandler(s.Config.API, svc, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	sessionHandler *v1.SessionHandler,
	roundHandler *v1.RoundHandler,
	registrationHandler *v1.RegistrationHandler,
	matchHandler *v1.MatchHandler,
	contactHandler *v1.ContactHandler,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	users := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		users.GET("/users/:userID", userHandler.HandleGetUser)
	}

	sessions := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		sessions.GET("/sessions", sessionHandler.HandleGetMySessions)
		sessions.POST("/sessions", sessionHandler.HandleCreateSession)
		sessions.GET("/sessions/:sessionID", sessionHandler.HandleGetSession)
		sessions.GET("/sessions/:sessionID/meeting-points", sessionHandler.HandleGetMeetingPoints)
		sessions.POST("/sessions/:sessionID/meeting-points", sessionHandler.HandleAddMeetingPoint)
		sessions.DELETE("/sessions/:sessionID/meeting-points/:pointID", sessionHandler.HandleRemoveMeetingPoint)
		sessions.GET("/sessions/:sessionID/rounds", roundHandler.HandleGetSessionRounds)
	}

	rounds := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		rounds.POST("/rounds", roundHandler.HandleCreateRound)
		rounds.GET("/rounds/:roundID", roundHandler.HandleGetRound)
		rounds.DELETE("/rounds/:roundID", roundHandler.HandleCancelRound)
		rounds.POST("/rounds/:roundID/sweep", roundHandler.HandleSweepStatuses)
		rounds.POST("/rounds/:roundID/registrations", registrationHandler.HandleRegister)
		rounds.POST("/rounds/:roundID/registrations/confirm", registrationHandler.HandleConfirm)
		rounds.GET("/rounds/:roundID/registrations/me", registrationHandler.HandleGetStatus)
		rounds.GET("/rounds/:roundID/eligible", matchHandler.HandleListEligible)
		rounds.POST("/rounds/:roundID/match", matchHandler.HandleRunMatching)
	}

	registrations := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		registrations.GET("/registrations", registrationHandler.HandleGetMyRegistrations)
	}

	matches := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		matches.POST("/matches/:matchID/acknowledge", matchHandler.HandleAcknowledge)
		matches.POST("/matches/:matchID/arrive", matchHandler.HandleConfirmArrival)
		matches.GET("/matches/:matchID/number-options", matchHandler.HandleNumberOptions)
		matches.POST("/matches/:matchID/select-number", matchHandler.HandleSelectNumber)
		matches.POST("/matches/:matchID/decision", contactHandler.HandleSubmitDecision)
	}

	contacts := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		contacts.GET("/contacts/decisions", contactHandler.HandleGetMyDecisions)
		contacts.GET("/contacts/shared", contactHandler.HandleGetSharedContacts)
		contacts.GET("/contacts/feedback", contactHandler.HandleGetFeedback)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "RoundMeet API"
	docs.SwaggerInfo.Description = "Round lifecycle and matching API for in-person networking sessions."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
