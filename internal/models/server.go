package models

import "time"

// Server types offered by the free server distributor.
const (
	ServerTypeSSH = "ssh"
	ServerTypeUDP = "udp"
)

// FreeServer holds credentials handed out to members. Deleting sets IsActive
// to false so grant history keeps resolving.
type FreeServer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Host        string    `gorm:"not null" json:"host"`
	Port        int       `gorm:"not null" json:"port"`
	Username    string    `gorm:"not null" json:"username"`
	Password    string    `gorm:"not null" json:"password"`
	Type        string    `gorm:"size:20;not null" json:"type"`
	Location    string    `gorm:"not null" json:"location"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedByID *uint     `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (FreeServer) TableName() string { return "servers" }

// PublicServer is the listing view without credentials.
type PublicServer struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Public strips credentials.
func (s FreeServer) Public() PublicServer {
	return PublicServer{ID: s.ID, Name: s.Name, Type: s.Type, Location: s.Location}
}

// ServerGrant records a server handed to a user.
type ServerGrant struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	ServerID    uint        `gorm:"not null;index" json:"server_id"`
	Server      *FreeServer `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE" json:"server,omitempty"`
	GeneratedAt time.Time   `gorm:"autoCreateTime" json:"generated_at"`
}

// TableName keeps the historical table name.
func (ServerGrant) TableName() string { return "user_servers" }
