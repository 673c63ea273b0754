package domain

import "time"

// Role enumerates the account variants.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleClient     Role = "CLIENT"
	RoleTechnician Role = "TECHNICIAN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleTechnician:
		return true
	}
	return false
}

// User holds the fields shared by every account variant.
type User struct {
	ID        string
	FullName  string
	Email     string
	Username  string
	Phone     string
	Address   string
	AvatarURL string
	Role      Role
	JoinedAt  time.Time
}

// Account is the closed set of account variants: *Admin, *Client and *Technician.
type Account interface {
	Base() *User
	account()
}

// Admin manages the catalog and dispatches tickets.
type Admin struct {
	User
}

// Client owns equipment and files fault reports.
type Client struct {
	User
}

// Technician resolves tickets. A technician that is not Available is bound to
// exactly one active ticket, recorded in CurrentTicketID.
type Technician struct {
	User
	Available       bool
	CurrentTicketID *string
	UpdatedAt       time.Time
}

func (a *Admin) Base() *User      { return &a.User }
func (c *Client) Base() *User     { return &c.User }
func (t *Technician) Base() *User { return &t.User }

func (*Admin) account()      {}
func (*Client) account()     {}
func (*Technician) account() {}

// NewAdmin, NewClient and NewTechnician stamp the matching role on the shared record.
func NewAdmin(u User) *Admin {
	u.Role = RoleAdmin
	return &Admin{User: u}
}

func NewClient(u User) *Client {
	u.Role = RoleClient
	return &Client{User: u}
}

func NewTechnician(u User) *Technician {
	u.Role = RoleTechnician
	return &Technician{User: u, Available: true}
}
