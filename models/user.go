package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type AddressType string

const (
	AddressHome  AddressType = "Home"
	AddressWork  AddressType = "Work"
	AddressOther AddressType = "Other"
)

type Address struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Line1       string             `bson:"line1" json:"line1"`
	Line2       string             `bson:"line2,omitempty" json:"line2,omitempty"`
	City        string             `bson:"city" json:"city"`
	State       string             `bson:"state" json:"state"`
	Country     string             `bson:"country" json:"country"`
	Pincode     string             `bson:"pincode" json:"pincode"`
	Mobile      string             `bson:"mobile" json:"mobile"`
	AddressType AddressType        `bson:"addressType" json:"addressType"`
	IsDefault   bool               `bson:"isDefault" json:"isDefault"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AddressPatch carries the fields of an address update; nil fields are left alone.
type AddressPatch struct {
	Line1       *string
	Line2       *string
	City        *string
	State       *string
	Country     *string
	Pincode     *string
	Mobile      *string
	AddressType *AddressType
	IsDefault   *bool
}

// Apply copies the set fields of p onto a.
func (p AddressPatch) Apply(a *Address) {
	if p.Line1 != nil {
		a.Line1 = *p.Line1
	}
	if p.Line2 != nil {
		a.Line2 = *p.Line2
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
	if p.Pincode != nil {
		a.Pincode = *p.Pincode
	}
	if p.Mobile != nil {
		a.Mobile = *p.Mobile
	}
	if p.AddressType != nil {
		a.AddressType = *p.AddressType
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"` // "-" means don't include in JSON
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role      Role               `bson:"role" json:"role"`
	Addresses []Address          `bson:"addresses" json:"addresses"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ProfileUpdate holds the optional fields of a profile edit.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// UserSummary is the public view of a user returned by the auth endpoints.
type UserSummary struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Phone string             `json:"phone,omitempty"`
	Role  Role               `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}
