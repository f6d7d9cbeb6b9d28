package server

import (
	"errors"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/migrate"
	"github.com/contractdesk/contractdesk/policy"
	"github.com/contractdesk/contractdesk/seed"
	"github.com/contractdesk/contractdesk/store"
)

// Application-level sentinel errors for missing configuration.
var (
	ErrDatabaseDSNNotSet = errors.New("DATABASE_DSN not set")
	ErrJWTSecretNotSet   = errors.New("JWT_SECRET not set")
)

// DefaultTokenTTL is the access token lifetime when config leaves it unset.
const DefaultTokenTTL = 60 * time.Minute

// Server wires the HTTP surface to the authorization core and stores. All
// registries are constructed explicitly here and passed by reference; there
// is no hidden static initialization order.
type Server struct {
	Config      *AppConfig
	DB          *gorm.DB
	Policies    *policy.Registry
	Resolver    *authz.Resolver
	Users       *store.UserStore
	Departments *store.DepartmentStore
	Contracts   *store.ContractStore
	Roles       *store.RoleStore
	Grants      *store.GrantStore
	Decisions   *store.DecisionLog // optional decision audit journal
	GrantCache  *store.GrantCache  // optional valkey cache for the ACL mirror feed

	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewServer builds a server around an already-open DB handle. Used directly
// by tests; production wiring goes through Initialize.
func NewServer(cfg *AppConfig, db *gorm.DB) *Server {
	s := &Server{Config: cfg, DB: db}
	s.Policies = policy.NewBuiltinRegistry()
	s.Users = store.NewUserStore(db)
	s.Departments = store.NewDepartmentStore(db)
	s.Contracts = store.NewContractStore(db)
	s.Roles = store.NewRoleStore(db)
	s.Grants = store.NewGrantStore(db)
	s.Resolver = authz.NewResolver(s.Grants, s.Policies)
	s.tokenTTL = DefaultTokenTTL
	if cfg != nil {
		if cfg.Auth.TokenTTLMinutes > 0 {
			s.tokenTTL = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
		}
		s.jwtSecret = []byte(cfg.JWTSecret())
	}
	return s
}

// Initialize opens the primary database from config, runs migrations and
// seeds when enabled by env, and wires stores, registry, and resolver.
func (s *Server) Initialize() error {
	if s.Config == nil {
		s.Config = GetConfig()
	}
	dsn := s.Config.DatabaseDSN()
	if dsn == "" {
		return ErrDatabaseDSNNotSet
	}
	if err := migrate.RunFromEnv(); err != nil {
		return err
	}
	if err := seed.RunFromEnv(); err != nil {
		return err
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	*s = *NewServer(s.Config, db)

	if path := s.Config.Audit.Path; path != "" {
		dl, err := store.NewDecisionLog(path)
		if err != nil {
			log.Printf("server: decision log disabled: %v", err)
		} else {
			s.Decisions = dl
		}
	}
	if addr := s.Config.Valkey.Addr; addr != "" {
		gc, err := store.NewGrantCache(addr, s.Config.Valkey.Prefix)
		if err != nil {
			log.Printf("server: grant cache disabled: %v", err)
		} else {
			s.GrantCache = gc
		}
	}
	return nil
}

// GetPrimaryDB returns the primary database handle.
func (s *Server) GetPrimaryDB() (*gorm.DB, error) {
	if s.DB == nil {
		return nil, ErrDatabaseDSNNotSet
	}
	return s.DB, nil
}

// recordDecision journals a decision when the audit log is configured.
// Best effort: audit failures never affect the authorization answer.
func (s *Server) recordDecision(d authz.Decision) {
	if s.Decisions == nil {
		return
	}
	if err := s.Decisions.Record(d); err != nil {
		log.Printf("server: record decision: %v", err)
	}
}
