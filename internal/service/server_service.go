package service

import (
	"context"
	"math/rand/v2"
	"strings"

	"communityhub/internal/models"
	"communityhub/internal/repository"
)

// ServerService hands out free server credentials.
type ServerService struct {
	serverRepo repository.ServerRepository
	pick       func(n int) int
}

type CreateServerInput struct {
	CreatedByID uint
	Name        string
	Host        string
	Port        int
	Username    string
	Password    string
	Type        string
	Location    string
}

func NewServerService(serverRepo repository.ServerRepository) *ServerService {
	return &ServerService{serverRepo: serverRepo, pick: rand.IntN}
}

// ListServers returns active servers without credentials.
func (s *ServerService) ListServers(ctx context.Context) ([]models.PublicServer, error) {
	servers, err := s.serverRepo.ListActive(ctx)
	if err != nil {
		return nil, storeErr("Failed to fetch servers", err)
	}
	out := make([]models.PublicServer, 0, len(servers))
	for _, srv := range servers {
		out = append(out, srv.Public())
	}
	return out, nil
}

// Generate picks a random active server and records the grant.
func (s *ServerService) Generate(ctx context.Context, userID uint) (*models.FreeServer, error) {
	servers, err := s.serverRepo.ListActive(ctx)
	if err != nil {
		return nil, storeErr("Failed to generate server", err)
	}
	if len(servers) == 0 {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "No servers available"}
	}

	chosen := servers[s.pick(len(servers))]
	if err := s.serverRepo.CreateGrant(ctx, &models.ServerGrant{UserID: userID, ServerID: chosen.ID}); err != nil {
		return nil, storeErr("Failed to generate server", err)
	}
	return &chosen, nil
}

func (s *ServerService) ListGrants(ctx context.Context, userID uint) ([]models.ServerGrant, error) {
	grants, err := s.serverRepo.ListGrantsByUser(ctx, userID)
	if err != nil {
		return nil, storeErr("Failed to fetch user servers", err)
	}
	return grants, nil
}

func (s *ServerService) CreateServer(ctx context.Context, in CreateServerInput) (*models.FreeServer, error) {
	srv := &models.FreeServer{
		Name:     strings.TrimSpace(in.Name),
		Host:     strings.TrimSpace(in.Host),
		Port:     in.Port,
		Username: strings.TrimSpace(in.Username),
		Password: in.Password,
		Type:     strings.ToLower(strings.TrimSpace(in.Type)),
		Location: strings.TrimSpace(in.Location),
		IsActive: true,
	}
	switch {
	case srv.Name == "" || srv.Host == "" || srv.Username == "" || srv.Password == "" || srv.Location == "":
		return nil, models.NewValidationError("name, host, username, password and location are required")
	case srv.Port < 1 || srv.Port > 65535:
		return nil, models.NewValidationError("port must be between 1 and 65535")
	case srv.Type != models.ServerTypeSSH && srv.Type != models.ServerTypeUDP:
		return nil, models.NewValidationError("type must be ssh or udp")
	}
	if in.CreatedByID != 0 {
		id := in.CreatedByID
		srv.CreatedByID = &id
	}

	if err := s.serverRepo.Create(ctx, srv); err != nil {
		return nil, storeErr("Failed to create server", err)
	}
	return srv, nil
}

// DeactivateServer hides the server; grant history keeps it.
func (s *ServerService) DeactivateServer(ctx context.Context, id uint) error {
	return storeErr("Failed to delete server", s.serverRepo.Deactivate(ctx, id))
}
