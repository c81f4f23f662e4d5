package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"communityhub/internal/middleware"
	"communityhub/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Inventory is the YAML document listing free servers to offer.
//
//	servers:
//	  - name: Frankfurt 1
//	    host: fra1.example.net
//	    port: 22
//	    username: guest
//	    password: s3cret
//	    type: ssh
//	    location: Germany
type Inventory struct {
	Servers []InventoryServer `yaml:"servers"`
}

// InventoryServer is one server entry. Active defaults to true.
type InventoryServer struct {
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Type     string `yaml:"type"`
	Location string `yaml:"location"`
	Active   *bool  `yaml:"active,omitempty"`
}

// ApplyResult counts inventory rows written.
type ApplyResult struct {
	Created int
	Updated int
}

// ParseInventory decodes and validates an inventory document.
func ParseInventory(r io.Reader) (*Inventory, error) {
	var inv Inventory
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&inv); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid inventory: %w", err)
	}
	seen := make(map[string]bool, len(inv.Servers))
	for i := range inv.Servers {
		s := &inv.Servers[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Host = strings.TrimSpace(s.Host)
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		switch {
		case s.Name == "" || s.Host == "" || s.Username == "" || s.Password == "":
			return nil, fmt.Errorf("server %d: name, host, username and password are required", i)
		case s.Port < 1 || s.Port > 65535:
			return nil, fmt.Errorf("server %q: port must be between 1 and 65535", s.Name)
		case s.Type != models.ServerTypeSSH && s.Type != models.ServerTypeUDP:
			return nil, fmt.Errorf("server %q: type must be ssh or udp", s.Name)
		}
		key := fmt.Sprintf("%s:%d", s.Host, s.Port)
		if seen[key] {
			return nil, fmt.Errorf("server %q: duplicate endpoint %s", s.Name, key)
		}
		seen[key] = true
	}
	return &inv, nil
}

// LoadInventory reads an inventory file from disk.
func LoadInventory(path string) (*Inventory, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseInventory(f)
}

// ApplyInventory upserts every entry keyed by host and port, so running it
// twice leaves the table unchanged.
func ApplyInventory(ctx context.Context, db *gorm.DB, inv *Inventory) (ApplyResult, error) {
	var res ApplyResult
	if inv == nil {
		return res, nil
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range inv.Servers {
			active := s.Active == nil || *s.Active
			fields := models.FreeServer{
				Name:     s.Name,
				Username: s.Username,
				Password: s.Password,
				Type:     s.Type,
				Location: s.Location,
				IsActive: active,
			}

			var existing models.FreeServer
			err := tx.Where("host = ? AND port = ?", s.Host, s.Port).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields.Host, fields.Port = s.Host, s.Port
				if err := tx.Create(&fields).Error; err != nil {
					return err
				}
				res.Created++
			case err != nil:
				return err
			default:
				if err := tx.Model(&existing).Select("name", "username", "password", "type", "location", "is_active").
					Updates(fields).Error; err != nil {
					return err
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	middleware.Component("seed").Info("server inventory applied",
		slog.Int("created", res.Created), slog.Int("updated", res.Updated))
	return res, nil
}
